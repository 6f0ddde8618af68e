package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/trezcool/masomo-guard/apps"
	echoapi "github.com/trezcool/masomo-guard/apps/api/echo"
	"github.com/trezcool/masomo-guard/core/identity"
)

func (cli *commandLine) tokenCmd() *cobra.Command {
	var actor identity.Actor
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API token for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if actor.ID <= 0 {
				return apps.NewArgumentError("actor", "must be a user id")
			}
			for _, role := range actor.Roles {
				if !identity.IsRole(role) {
					return apps.NewArgumentError("roles", "unknown role %q", role)
				}
			}
			if ttl <= 0 {
				ttl = cli.conf.Server.JWTExpiration
			}

			claims := echoapi.GetActorClaims(cli.conf.AppName, actor, ttl)
			token, err := echoapi.GenerateToken(claims, []byte(cli.conf.SecretKey))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	f := cmd.Flags()
	f.Int64Var(&actor.ID, "actor", 0, "user id")
	f.StringVar(&actor.Username, "username", "", "username")
	f.StringVar(&actor.Email, "email", "", "email")
	f.StringSliceVar(&actor.Roles, "roles", nil, "roles")
	f.DurationVar(&ttl, "ttl", 0, "token lifetime, defaults to server.jwtExpiration")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}
