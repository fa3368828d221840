package cli

import (
	"fmt"

	"productapi/internal/models"
	"productapi/internal/services"

	"github.com/spf13/cobra"
)

func newTokenCmd(a *app) *cobra.Command {
	var p models.Principal
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := services.NewAuthService(a.authConfig()).IssueToken(p)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&p.ID, "sub", "", "subject (user id)")
	cmd.Flags().StringVar(&p.Role, "role", models.RoleUser, "role: USER|ADMIN")
	cmd.Flags().StringVar(&p.Name, "name", "", "display name")
	_ = cmd.MarkFlagRequired("sub")
	return cmd
}

func newHashKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-key <admin-key>",
		Short: "Print the bcrypt hash to use as ADMIN_API_KEY_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := services.HashAdminKey(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
