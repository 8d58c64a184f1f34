package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/target/escrow-api/internal/domain/model"
)

func newStuckCmd(cmdCtx *commandContext) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "stuck",
		Short: "List escrowed milestones whose funds were never transferred",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := connectServices(cmd.Context(), cmdCtx)
			if err != nil {
				return err
			}
			defer deps.Close(cmdCtx.Logger)

			stuck, err := deps.Services.Admin.FindStuckMilestones(cmd.Context())
			if err != nil {
				return err
			}
			return writeStuck(cmd.OutOrStdout(), output, stuck)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "table, json or yaml")
	return cmd
}

func writeStuck(w io.Writer, format string, stuck []model.StuckMilestone) error {
	switch format {
	case "table":
		renderStuckTable(w, stuck)
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(stuck)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(stuckViews(stuck))
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// stuckView is the YAML shape; yaml.v3 would otherwise dump decimal internals.
type stuckView struct {
	Job          string `yaml:"job"`
	Milestone    string `yaml:"milestone"`
	Client       string `yaml:"client"`
	Talent       string `yaml:"talent"`
	Amount       string `yaml:"amount"`
	Captured     string `yaml:"captured"`
	EscrowedAt   string `yaml:"escrowed_at,omitempty"`
	LastTransfer string `yaml:"last_transfer"`
}

func stuckViews(stuck []model.StuckMilestone) []stuckView {
	out := make([]stuckView, 0, len(stuck))
	for _, s := range stuck {
		v := stuckView{
			Job:          s.JobID,
			Milestone:    s.MilestoneID,
			Client:       s.ClientID,
			Talent:       s.TalentID,
			Amount:       s.Amount.StringFixed(2),
			Captured:     s.CapturedAmount.StringFixed(2),
			LastTransfer: describeTransfer(s.LastTransfer),
		}
		if s.EscrowedAt != nil {
			v.EscrowedAt = s.EscrowedAt.UTC().Format(time.RFC3339)
		}
		out = append(out, v)
	}
	return out
}

func renderStuckTable(w io.Writer, stuck []model.StuckMilestone) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Job", "Milestone", "Talent", "Amount", "Captured", "Escrowed", "Last transfer"})
	for _, s := range stuck {
		escrowed := "-"
		if s.EscrowedAt != nil {
			escrowed = s.EscrowedAt.UTC().Format(time.RFC3339)
		}
		tw.AppendRow(table.Row{
			s.JobID,
			s.MilestoneID,
			s.TalentID,
			s.Amount.StringFixed(2),
			s.CapturedAmount.StringFixed(2),
			escrowed,
			describeTransfer(s.LastTransfer),
		})
	}
	tw.AppendFooter(table.Row{"", "", "Total", len(stuck)})
	tw.Render()
}

func describeTransfer(t *model.Transfer) string {
	if t == nil {
		return "none"
	}
	out := string(t.Status)
	if t.FailureReason != nil && *t.FailureReason != "" {
		out += ": " + *t.FailureReason
	}
	return out
}
