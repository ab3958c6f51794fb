package cmd

import (
	"context"
	"database/sql"

	"github.com/vibast-solutions/ms-go-onlearn-auth/config"
	"github.com/vibast-solutions/ms-go-onlearn-auth/migrations"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrationDB(cmd, migrations.Up)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrationDB(cmd, migrations.Down)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the applied state of every migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrationDB(cmd, migrations.Status)
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(migrateCmd)
}

func withMigrationDB(cmd *cobra.Command, run func(ctx context.Context, db *sql.DB) error) (err error) {
	dsn, err := config.LoadDSN()
	if err != nil {
		return err
	}

	ctx := contextOrBackground(cmd.Context())
	db, err := openDatabase(ctx, dsn)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, db.Close())
	}()

	return run(ctx, db)
}
