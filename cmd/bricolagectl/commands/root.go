// cmd/bricolagectl/commands/root.go
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/javajoker/bricolage-backend/internal/config"
	"github.com/javajoker/bricolage-backend/internal/database"
)

// NewRootCmd builds the bricolagectl command tree. Settings come from the
// same environment variables and .env file the server reads.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bricolagectl",
		Short: "Administrative tasks for the bricolage shop back end",
		Long: `bricolagectl runs maintenance tasks against the shop database.

Commands:
  migrate       - Create or update the database schema
  create-admin  - Create a verified administrator account`,
		SilenceUsage: true,
	}

	root.AddCommand(newMigrateCmd())
	root.AddCommand(newCreateAdminCmd())
	return root
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openDatabase loads the configuration and connects to its database.
func openDatabase() (*gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.Log.ApplyToStandardLogger()

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}
