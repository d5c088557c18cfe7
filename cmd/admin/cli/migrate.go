package cli

import (
	"fmt"

	"github.com/hamidoujand/roster/internal/migrate"
	"github.com/spf13/cobra"
)

var migrateDB dbFlags

func init() {
	rootCommand.AddCommand(migrateCommand)
	migrateDB.register(migrateCommand)
}

var migrateCommand = &cobra.Command{
	Use:   "migrate",
	Short: "performs migration",
	Long: `Execute database migrations.

Examples:
  admin migrate --user=myuser --pass=mypass --host=localhost:5432 --name=mydb`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return migrateDB.validate()
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := migrateDB.open(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		fmt.Fprintln(cmd.OutOrStdout(), "applying migrations...")

		if err := migrate.Migrate(db, migrateDB.name); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}

		version, dirty, err := migrate.Version(db, migrateDB.name)
		if err != nil {
			return fmt.Errorf("version: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "migration completed, version=%d dirty=%t\n", version, dirty)
		return nil
	},
}
