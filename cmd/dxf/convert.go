package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsawler/dxf"
	"github.com/tsawler/dxf/dialect"
	"github.com/tsawler/dxf/format"
	"github.com/tsawler/dxf/thumbnail"
)

type convertOutput struct {
	Input   string   `json:"input"`
	Output  string   `json:"output"`
	From    string   `json:"from"`
	To      string   `json:"to"`
	Lossy   bool     `json:"lossy"`
	Changes []string `json:"changes,omitempty"`
}

func (a *app) convertCmd() *cobra.Command {
	var (
		version     string
		binary      bool
		approximate []string
		drop        []string
		extents     bool
		preview     bool
	)
	cmd := &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Write a drawing in another DXF version",
		Long: `Convert reads a drawing and writes it in the requested version. Writing
R12 replaces LWPOLYLINE with POLYLINE and approximates ELLIPSE, SPLINE and
MTEXT as configured. Other entity types R12 lacks are removed when listed
with --drop. Anything else fails the conversion and the output file is
left untouched.

Example:
  dxf convert plan.dxf plan-r12.dxf --version R12
  dxf convert plan.dxf plan.dxf --version 2018 --binary
  dxf convert plan.dxf plan-r12.dxf --version R12 --approximate none
  dxf convert plan.dxf plan-r12.dxf --version R12 --drop LEADER,HATCH`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, _, err := a.open(args[0])
			if err != nil {
				return err
			}

			target := a.cfg.Version
			if version != "" {
				if target, err = format.ParseVersion(version); err != nil {
					return err
				}
			}
			if target == format.Unknown {
				target = doc.Version
			}

			policy := a.cfg.Policy
			if cmd.Flags().Changed("approximate") {
				if policy.Approximate, err = dialect.ParseKinds(approximate); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("drop") {
				policy = policy.WithDrop(drop...)
			}

			ex := dxf.Export(doc).Version(target).Policy(policy).Logger(a.logger)
			if binary || a.cfg.Binary {
				ex = ex.Binary()
			}
			if extents {
				ex = ex.UpdateExtents()
			}
			if preview {
				ex = ex.Thumbnail(thumbnail.DefaultOptions())
			}
			if err := ex.WriteFile(args[1]); err != nil {
				return err
			}

			out := convertOutput{Input: args[0], Output: args[1], From: doc.Version.String(), To: target.String()}
			if r := ex.Report(); r != nil {
				out.Lossy = r.Lossy()
				for _, c := range r.Changes {
					out.Changes = append(out.Changes, c.String())
				}
			}
			if a.json {
				return printJSON(cmd.OutOrStdout(), out)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) -> %s (%s)\n", out.Input, out.From, out.Output, out.To)
			for _, c := range out.Changes {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", c)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&version, "version", "", "output version (R12, R2000 ... R2018)")
	cmd.Flags().BoolVar(&binary, "binary", false, "write binary DXF")
	cmd.Flags().StringSliceVar(&approximate, "approximate", nil, "entity kinds to approximate for R12, or none")
	cmd.Flags().StringSliceVar(&drop, "drop", nil, "entity types R12 lacks to remove instead of failing, or *")
	cmd.Flags().BoolVar(&extents, "extents", false, "recompute $EXTMIN and $EXTMAX")
	cmd.Flags().BoolVar(&preview, "thumbnail", false, "embed a preview image")
	return cmd
}
