package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tsawler/dxf/catalog"
)

type drawingOutput struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	Version   string    `json:"version"`
	Entities  int       `json:"entities"`
	IndexedAt time.Time `json:"indexed_at"`
}

func toOutput(d catalog.Drawing) drawingOutput {
	return drawingOutput{ID: d.ID, Path: d.Path, Version: d.Version.String(), Entities: d.Entities, IndexedAt: d.IndexedAt}
}

// withCatalog opens the configured index for the duration of fn.
func (a *app) withCatalog(ctx context.Context, fn func(*catalog.Catalog) error) error {
	c, err := catalog.Open(ctx, a.cfg.Catalog)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}

func (a *app) indexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index <file>...",
		Short: "Add drawings to the catalog",
		Long: `Index parses each drawing and records its version, layers, blocks and
entity counts in the catalog database. Re-indexing a file replaces its
entry. Files that fail to parse are reported and skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCatalog(cmd.Context(), func(c *catalog.Catalog) error {
				var added []drawingOutput
				var errs []error
				for _, path := range args {
					abs, err := filepath.Abs(path)
					if err != nil {
						errs = append(errs, err)
						continue
					}
					doc, _, err := a.open(path)
					if err != nil {
						errs = append(errs, fmt.Errorf("%s: %w", path, err))
						continue
					}
					d, err := c.Add(cmd.Context(), abs, doc)
					if err != nil {
						return err
					}
					a.logger.Debug("indexed", "file", abs, "id", d.ID)
					added = append(added, toOutput(d))
				}

				if a.json {
					if err := printJSON(cmd.OutOrStdout(), added); err != nil {
						return err
					}
				} else {
					for _, d := range added {
						fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", d.ID, d.Path)
					}
				}
				return errors.Join(errs...)
			})
		},
	}
}

func (a *app) findCmd() *cobra.Command {
	var layer, block, typ string
	cmd := &cobra.Command{
		Use:   "find",
		Short: "Search the catalog",
		Long: `Find lists indexed drawings. At most one filter may be given; without
one every drawing is listed.

Example:
  dxf find --layer WALLS
  dxf find --block DOOR
  dxf find --type spline`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			set := 0
			for _, f := range []string{layer, block, typ} {
				if f != "" {
					set++
				}
			}
			if set > 1 {
				return errors.New("use only one of --layer, --block and --type")
			}

			return a.withCatalog(cmd.Context(), func(c *catalog.Catalog) error {
				var found []catalog.Drawing
				var err error
				switch {
				case layer != "":
					found, err = c.FindByLayer(cmd.Context(), layer)
				case block != "":
					found, err = c.FindByBlock(cmd.Context(), block)
				case typ != "":
					found, err = c.FindByType(cmd.Context(), typ)
				default:
					found, err = c.List(cmd.Context())
				}
				if err != nil {
					return err
				}

				out := make([]drawingOutput, len(found))
				for i, d := range found {
					out[i] = toOutput(d)
				}
				if a.json {
					return printJSON(cmd.OutOrStdout(), out)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, d := range out {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", d.Path, d.Version, d.Entities, d.ID)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&layer, "layer", "", "drawings defining this layer")
	cmd.Flags().StringVar(&block, "block", "", "drawings defining this block")
	cmd.Flags().StringVar(&typ, "type", "", "drawings with entities of this type")
	return cmd
}

func (a *app) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <file>...",
		Short: "Remove drawings from the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCatalog(cmd.Context(), func(c *catalog.Catalog) error {
				for _, path := range args {
					abs, err := filepath.Abs(path)
					if err != nil {
						return err
					}
					d, err := c.Lookup(cmd.Context(), abs)
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					if err := c.Remove(cmd.Context(), d.ID); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", abs)
				}
				return nil
			})
		},
	}
}
