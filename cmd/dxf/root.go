package main

import (
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/tsawler/dxf"
	"github.com/tsawler/dxf/internal/config"
	"github.com/tsawler/dxf/model"
)

// app holds the state shared by all subcommands of one invocation.
type app struct {
	configFile string
	verbose    bool
	json       bool

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "dxf",
		Short: "Inspect, validate and convert DXF drawings",
		Long: `dxf reads text and binary DXF files from R12 to 2018, checks their
references, converts them between versions and keeps a searchable index
of drawings.

Settings come from dxf.yaml in the working directory (or --config) and
DXF_ environment variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (default: ./dxf.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")
	root.PersistentFlags().BoolVar(&a.json, "json", false, "output as JSON")

	root.AddCommand(
		a.infoCmd(),
		a.validateCmd(),
		a.convertCmd(),
		a.thumbnailCmd(),
		a.reportCmd(),
		a.indexCmd(),
		a.findCmd(),
		a.removeCmd(),
		a.configCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	if cfg.File != "" {
		a.logger.Debug("config loaded", "file", cfg.File)
	}
	return nil
}

// open reads a drawing with the configured reference policy.
func (a *app) open(path string) (*model.Document, []dxf.Warning, error) {
	return dxf.Open(path).Options(a.cfg.ModelOptions()).Logger(a.logger).Document()
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// sorted yields the entries of m by key.
func sorted[V any](m map[string]V) iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		for _, k := range slices.Sorted(maps.Keys(m)) {
			if !yield(k, m[k]) {
				return
			}
		}
	}
}
