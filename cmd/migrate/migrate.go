// Package migrate implements the migrate command.
package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/restock/cmd/common"
	"github.com/jonesrussell/north-cloud/restock/internal/database"
)

// Command creates the migrate command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the products and availability tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return err
			}
			defer func() { _ = deps.Logger.Sync() }()

			db, closeDB, err := deps.OpenDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			if schemaErr := database.EnsureSchema(cmd.Context(), db); schemaErr != nil {
				return fmt.Errorf("migrate: %w", schemaErr)
			}
			deps.Logger.Info("Schema is up to date")
			return nil
		},
	}
}
