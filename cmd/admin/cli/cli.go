// Package cli holds the commands of the admin tool.
package cli

import (
	"fmt"

	"github.com/hamidoujand/roster/internal/sqldb"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

var rootCommand = &cobra.Command{
	Use:   "admin",
	Short: "admin cli for roster",
	Long:  "admin cli to run migrations, seed users and generate token signing keys for roster",
	Run: func(cmd *cobra.Command, args []string) {
		//show help if no sub-command is provided
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCommand.Execute()
}

// ==============================================================================

// dbFlags are the connection flags shared by commands touching the database.
type dbFlags struct {
	user string
	pass string
	host string
	name string
}

func (f *dbFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.user, "user", "u", "postgres", "Database username.")
	cmd.Flags().StringVarP(&f.pass, "pass", "p", "postgres", "Database password.")
	cmd.Flags().StringVar(&f.host, "host", "localhost:5432", "Database host:port.")
	cmd.Flags().StringVarP(&f.name, "name", "n", "postgres", "Database name.")
}

func (f *dbFlags) validate() error {
	switch {
	case f.user == "":
		return fmt.Errorf("database user is required (--user)")
	case f.pass == "":
		return fmt.Errorf("database password is required (--pass)")
	case f.host == "":
		return fmt.Errorf("database host is required (--host)")
	case f.name == "":
		return fmt.Errorf("database name is required (--name)")
	}

	return nil
}

func (f *dbFlags) open(cmd *cobra.Command) (*sqlx.DB, error) {
	db, err := sqldb.Open(sqldb.Config{
		User:       f.user,
		Password:   f.pass,
		Host:       f.host,
		Name:       f.name,
		DisableTLS: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open connection: %w", err)
	}

	if err := sqldb.StatusCheck(cmd.Context(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("statusCheck: %w", err)
	}

	return db, nil
}
