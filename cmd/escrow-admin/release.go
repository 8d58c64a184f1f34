package main

import (
	"fmt"
	"os/user"

	"github.com/spf13/cobra"

	"github.com/target/escrow-api/internal/domain/auth"
)

func newReleaseFundsCmd(cmdCtx *commandContext) *cobra.Command {
	var operator string
	cmd := &cobra.Command{
		Use:   "release-funds <jobId> <milestoneId>",
		Short: "Release an escrowed milestone to the talent as an operator",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := connectServices(cmd.Context(), cmdCtx)
			if err != nil {
				return err
			}
			defer deps.Close(cmdCtx.Logger)

			id := operatorIdentity(operator)
			m, err := deps.Services.Admin.ReleaseMilestoneFunds(cmd.Context(), &id, args[0], args[1])
			if err != nil {
				return err
			}
			return writef(cmd.OutOrStdout(), "milestone %s is %s (transfer %s)\n", m.ID, m.Status, m.TransferID)
		},
	}
	cmd.Flags().StringVar(&operator, "operator", "", "operator id recorded in logs (defaults to the OS user)")
	return cmd
}

// operatorIdentity is the admin identity the CLI acts as.
func operatorIdentity(name string) auth.Identity {
	if name == "" {
		if u, err := user.Current(); err == nil {
			name = u.Username
		}
	}
	if name == "" {
		name = "unknown"
	}
	return auth.Identity{
		UserID: fmt.Sprintf("cli:%s", name),
		Roles:  []auth.Role{auth.RoleAdmin},
	}
}
