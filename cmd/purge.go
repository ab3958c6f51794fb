package cmd

import (
	"fmt"

	"github.com/vibast-solutions/ms-go-onlearn-auth/app/maintenance"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/repository"
	"github.com/vibast-solutions/ms-go-onlearn-auth/config"

	"github.com/spf13/cobra"
)

var purgeCmd = &cobra.Command{
	Use:   "purge-expired",
	Short: "Delete expired refresh sessions once and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		dsn, err := config.LoadDSN()
		if err != nil {
			return err
		}

		ctx := contextOrBackground(cmd.Context())
		db, err := openDatabase(ctx, dsn)
		if err != nil {
			return err
		}
		defer db.Close()

		purger := maintenance.NewPurger(repository.NewRefreshTokenRepository(db), "")
		deleted, err := purger.RunOnce(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d expired session(s)\n", deleted)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(purgeCmd)
}
