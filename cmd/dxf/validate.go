package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsawler/dxf"
)

type validateResult struct {
	File     string   `json:"file"`
	Valid    bool     `json:"valid"`
	Problems []string `json:"problems,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func (a *app) validateCmd() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Check drawings for syntax, structure and dangling references",
		Long: `Validate parses each file and checks that every entity and record
reference resolves. With --strict, references to missing layers,
linetypes, styles and blocks are errors instead of being created.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var results []validateResult
			failed := 0
			for _, path := range args {
				im := dxf.Open(path).Options(a.cfg.ModelOptions()).Logger(a.logger)
				if strict {
					im = im.Strict()
				}
				r := validateResult{File: path, Valid: true}
				_, warnings, err := im.Document()
				if err != nil {
					r.Valid = false
					failed++
					for _, d := range im.Diagnostics() {
						r.Problems = append(r.Problems, d.Error())
					}
				}
				for _, w := range warnings {
					r.Warnings = append(r.Warnings, w.String())
				}
				results = append(results, r)
			}

			if a.json {
				if err := printJSON(cmd.OutOrStdout(), results); err != nil {
					return err
				}
			} else {
				for _, r := range results {
					if r.Valid {
						fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", r.File)
					} else {
						fmt.Fprintf(cmd.OutOrStdout(), "%s: invalid\n", r.File)
					}
					for _, p := range r.Problems {
						fmt.Fprintf(cmd.OutOrStdout(), "  error: %s\n", p)
					}
					for _, w := range r.Warnings {
						fmt.Fprintf(cmd.OutOrStdout(), "  warning: %s\n", w)
					}
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files invalid", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "reject references to missing records")
	return cmd
}
