package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"presidentielle/internal/dashboard"
)

func writeIndented(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newRenderCmd prints the view model of one selection
func newRenderCmd(service *dashboard.Service) *cobra.Command {
	var (
		values dashboard.Values
		panel  string
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the dashboard view model of a selection as JSON",
		Example: `  server render --level departement --candidate zemmour --percentage non
  server render --round 2 --level nation --panel stats`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := dashboard.ParseSelection(values)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			switch panel {
			case "all":
				vm, err := service.Render(ctx, sel)
				if err != nil {
					return err
				}
				return writeIndented(out, vm)
			case "stats":
				p, err := service.RenderStats(ctx, sel)
				if err != nil {
					return err
				}
				return writeIndented(out, p)
			case "candidates":
				p, err := service.RenderCandidates(ctx, sel)
				if err != nil {
					return err
				}
				return writeIndented(out, p)
			default:
				return fmt.Errorf("unknown panel %q (want all, stats or candidates)", panel)
			}
		},
	}
	f := cmd.Flags()
	f.StringVar(&values.Round, "round", "", "electoral round: 1 or 2")
	f.StringVar(&values.Level, "level", "", "geography: nation, region or departement")
	f.StringVar(&values.Percentage, "percentage", "", "show percentages: oui or non")
	f.StringVar(&values.Stat, "stat", "", "Inscrits, Votants, Abstentions, Blancs, Nuls or Exprimés")
	f.StringVar(&values.Candidate, "candidate", "", "candidate surname or Majorité")
	f.StringVar(&panel, "panel", "all", "panel to render: all, stats or candidates")
	return cmd
}

// newAuditCmd checks every configured table
func newAuditCmd(service *dashboard.Service) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Check the bundled tables for data quality problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := service.Audit(cmd.Context())
			if err != nil {
				return err
			}
			if err := writeIndented(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if strict && len(report.Findings) > 0 {
				return fmt.Errorf("audit found %d problems", len(report.Findings))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "exit with an error when problems are found")
	return cmd
}
