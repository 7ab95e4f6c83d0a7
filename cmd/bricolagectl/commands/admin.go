// cmd/bricolagectl/commands/admin.go
package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javajoker/bricolage-backend/internal/database"
)

func newCreateAdminCmd() *cobra.Command {
	var account database.AdminAccount

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a verified administrator account",
		Long: `Create a verified user holding the administrador scope.
The schema is migrated first.

Examples:
  bricolagectl create-admin --username admin --email admin@bricolage.pt --password segredo`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase()
			if err != nil {
				return err
			}
			defer database.Close(db)

			if err := database.RunMigrations(db); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			admin, err := database.CreateAdmin(db, account)
			if errors.Is(err, database.ErrAdminExists) {
				return fmt.Errorf("user %q or email %q already exists", account.Username, account.Email)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Administrator %s created (%s)\n", admin.Username, admin.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&account.Username, "username", "admin", "Username of the administrator")
	cmd.Flags().StringVar(&account.Email, "email", "", "Email of the administrator")
	cmd.Flags().StringVar(&account.Password, "password", "", "Password of the administrator")
	cmd.Flags().StringVar(&account.Nome, "nome", "", "Display name, defaults to Administrador")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}
