package main

import (
	"fmt"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"

	"github.com/johnquangdev/meeting-sync/internal/infrastructure/database"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := ctx.ensureDB()
			if err != nil {
				return err
			}

			direction := migrate.Up
			if down {
				direction = migrate.Down
			}
			n, err := database.Migrate(db, direction)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migrations (%s)\n", n, directionName(direction))
			return nil
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "Roll back instead of applying")

	return cmd
}

func directionName(d migrate.MigrationDirection) string {
	if d == migrate.Down {
		return "down"
	}
	return "up"
}
