package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tsawler/dxf/report"
	"github.com/tsawler/dxf/thumbnail"
)

func (a *app) thumbnailCmd() *cobra.Command {
	opts := thumbnail.DefaultOptions()
	opts.Supersample = 2
	cmd := &cobra.Command{
		Use:   "thumbnail <input> <output>",
		Short: "Render model space to an image",
		Long: `Thumbnail draws the visible layers of model space. The image format
follows the output extension: .png, .jpg, .gif, .tif or .bmp.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, _, err := a.open(args[0])
			if err != nil {
				return err
			}
			if err := thumbnail.Save(doc.EntityTable, args[1], opts); err != nil {
				return err
			}
			a.logger.Debug("thumbnail written", "file", args[1], "width", opts.Width, "height", opts.Height)
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.Width, "width", opts.Width, "image width in pixels")
	cmd.Flags().IntVar(&opts.Height, "height", opts.Height, "image height in pixels")
	cmd.Flags().IntVar(&opts.Margin, "margin", opts.Margin, "margin in pixels")
	cmd.Flags().IntVar(&opts.Supersample, "supersample", opts.Supersample, "render at this multiple and scale down")
	return cmd
}

func (a *app) reportCmd() *cobra.Command {
	var title, notesFile string
	cmd := &cobra.Command{
		Use:   "report <input> [output.html]",
		Short: "Write an HTML inventory of a drawing",
		Long: `Report writes the version, extents, entity counts, layers and blocks of
a drawing with an SVG preview of model space. Without an output file the
page goes to stdout.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, _, err := a.open(args[0])
			if err != nil {
				return err
			}
			if title == "" {
				title = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}
			opts := report.Options{Title: title}
			if notesFile != "" {
				notes, err := os.ReadFile(notesFile)
				if err != nil {
					return fmt.Errorf("read notes: %w", err)
				}
				opts.Notes = string(notes)
			}

			if len(args) == 1 {
				return report.Write(cmd.OutOrStdout(), doc, opts)
			}
			f, err := os.Create(args[1])
			if err != nil {
				return fmt.Errorf("create report: %w", err)
			}
			if err := report.Write(f, doc, opts); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "page title (default: file name)")
	cmd.Flags().StringVar(&notesFile, "notes", "", "Markdown file shown as notes")
	return cmd
}
