package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tsawler/dxf"
	"github.com/tsawler/dxf/report"
)

type infoOutput struct {
	File      string         `json:"file"`
	Version   string         `json:"version"`
	Entities  int            `json:"entities"`
	Counts    map[string]int `json:"counts"`
	Layers    []string       `json:"layers"`
	Blocks    []string       `json:"blocks"`
	Extents   [4]float64     `json:"extents"`
	Preserved []string       `json:"preserved,omitempty"`
	Warnings  []string       `json:"warnings,omitempty"`
}

func (a *app) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Show the version and contents of a drawing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, warnings, err := a.open(args[0])
			if err != nil {
				return err
			}
			s := report.Summarize(doc)

			out := infoOutput{
				File:     args[0],
				Version:  s.Version.String(),
				Entities: s.Entities,
				Counts:   make(map[string]int),
			}
			for _, k := range s.Counts {
				out.Counts[k.Type] = k.Count
			}
			for _, l := range s.Layers {
				out.Layers = append(out.Layers, l.Name)
			}
			for _, b := range s.Blocks {
				out.Blocks = append(out.Blocks, b.Name)
			}
			if !s.Extents.IsEmpty() {
				out.Extents = [4]float64{s.Extents.Min.X, s.Extents.Min.Y, s.Extents.Max.X, s.Extents.Max.Y}
			}
			out.Preserved = append(out.Preserved, s.Sections...)
			out.Preserved = append(out.Preserved, s.Tables...)
			for _, w := range warnings {
				out.Warnings = append(out.Warnings, w.String())
			}

			if a.json {
				return printJSON(cmd.OutOrStdout(), out)
			}
			return printInfo(cmd, out, warnings)
		},
	}
}

func printInfo(cmd *cobra.Command, out infoOutput, warnings []dxf.Warning) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "File:\t%s\n", out.File)
	fmt.Fprintf(tw, "Version:\t%s\n", out.Version)
	fmt.Fprintf(tw, "Entities:\t%d\n", out.Entities)
	fmt.Fprintf(tw, "Layers:\t%d\n", len(out.Layers))
	fmt.Fprintf(tw, "Blocks:\t%d\n", len(out.Blocks))
	fmt.Fprintf(tw, "Extents:\t%g,%g - %g,%g\n", out.Extents[0], out.Extents[1], out.Extents[2], out.Extents[3])
	for typ, n := range sorted(out.Counts) {
		fmt.Fprintf(tw, "  %s\t%d\n", typ, n)
	}
	if len(warnings) > 0 {
		fmt.Fprintf(tw, "Warnings:\t%s\n", dxf.FormatWarnings(warnings))
	}
	return tw.Flush()
}
