package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/target/escrow-api/config"
	"github.com/target/escrow-api/internal/adapters/authroles"
	"github.com/target/escrow-api/internal/adapters/devauth"
	"github.com/target/escrow-api/internal/domain/auth"
)

func newDevTokenCmd(cmdCtx *commandContext) *cobra.Command {
	var (
		subject string
		roles   []string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "dev-token",
		Short: "Mint a bearer token for AUTH_MODE=dev",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := mintDevToken(cmdCtx.Config, subject, roles, ttl)
			if err != nil {
				return err
			}
			return writef(cmd.OutOrStdout(), "%s\n", token)
		},
	}
	cmd.Flags().StringVar(&subject, "sub", "", "user id placed in the sub claim")
	cmd.Flags().StringSliceVar(&roles, "role", []string{string(auth.RoleClient)}, "role to grant (repeatable)")
	cmd.Flags().DurationVar(&ttl, "ttl", 8*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("sub")
	return cmd
}

func mintDevToken(cfg config.AppConfig, subject string, roleNames []string, ttl time.Duration) (string, error) {
	if !cfg.IsDev {
		return "", fmt.Errorf("dev tokens can only be minted with DEV=true")
	}
	roles := make([]auth.Role, 0, len(roleNames))
	for _, name := range roleNames {
		r := auth.Role(name)
		switch r {
		case auth.RoleAdmin, auth.RoleClient, auth.RoleTalent:
			roles = append(roles, r)
		default:
			return "", fmt.Errorf("unknown role %q", name)
		}
	}

	mapper, err := authroles.NewClaimsRoleMapper(authroles.DefaultRolesExpression, nil)
	if err != nil {
		return "", err
	}
	v, err := devauth.NewVerifier(devauth.Config{
		Secret: cfg.Auth.Dev.Secret,
		Issuer: cfg.Auth.Dev.Issuer,
		Mapper: mapper,
	})
	if err != nil {
		return "", err
	}
	return v.Mint(subject, roles, ttl)
}
