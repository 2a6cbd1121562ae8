package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsawler/dxf/format"
	"github.com/tsawler/dxf/internal/config"
)

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds := make([]string, len(a.cfg.Policy.Approximate))
			for i, k := range a.cfg.Policy.Approximate {
				kinds[i] = k.String()
			}
			version := ""
			if a.cfg.Version != format.Unknown {
				version = a.cfg.Version.String()
			}
			out := map[string]any{
				config.KeyReferencePolicy: a.cfg.References.String(),
				config.KeyRemovalPolicy:   a.cfg.Removal.String(),
				config.KeyVersion:         version,
				config.KeyBinary:          a.cfg.Binary,
				config.KeyApproximate:     kinds,
				config.KeyDrop:            append([]string{}, a.cfg.Policy.Drop...),
				config.KeyChordTolerance:  a.cfg.Policy.ChordTolerance,
				config.KeySplineSegments:  a.cfg.Policy.SplineSegments,
				config.KeyCatalog:         a.cfg.Catalog,
			}
			if a.json {
				return printJSON(cmd.OutOrStdout(), out)
			}
			if a.cfg.File != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", a.cfg.File)
			}
			for k, v := range sorted(out) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", k, v)
			}
			return nil
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Write a default dxf.yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "dxf.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s exists; use --force to overwrite", path)
			}
			if err := os.WriteFile(path, []byte(config.DefaultYAML), 0o644); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}
