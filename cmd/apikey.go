package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vibast-solutions/ms-go-onlearn-auth/app/repository"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/service"
	"github.com/vibast-solutions/ms-go-onlearn-auth/config"

	"github.com/spf13/cobra"
)

var apiKeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage internal service API keys",
}

var apiKeyGenerateCmd = &cobra.Command{
	Use:   "generate <service_name>",
	Short: "Generate an internal API key for a service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		internalAuthService, db, err := newInternalAuthServiceForAPIKeyCommands(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		serviceName := args[0]
		key, err := internalAuthService.GenerateInternalAPIKey(cmd.Context(), serviceName)
		if err != nil {
			return apiKeyError(serviceName, err)
		}

		printAPIKey(cmd, serviceName, key)
		return nil
	},
}

var apiKeyDeactivateCmd = &cobra.Command{
	Use:   "deactivate <service_name>",
	Short: "Deactivate all active API keys for a service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		internalAuthService, db, err := newInternalAuthServiceForAPIKeyCommands(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		serviceName := args[0]
		count, err := internalAuthService.DeactivateInternalAPIKeys(cmd.Context(), serviceName)
		if err != nil {
			return apiKeyError(serviceName, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "deactivated %d active API key(s) for service %s\n", count, serviceName)
		return nil
	},
}

var apiKeyRotateCmd = &cobra.Command{
	Use:   "rotate <service_name>",
	Short: "Replace the active API key of a service",
	Long:  `Deactivate every active key of the service and issue a new one. Callers using the old key are rejected immediately.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		internalAuthService, db, err := newInternalAuthServiceForAPIKeyCommands(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		serviceName := args[0]
		key, err := internalAuthService.RotateInternalAPIKey(cmd.Context(), serviceName)
		if err != nil {
			return apiKeyError(serviceName, err)
		}

		printAPIKey(cmd, serviceName, key)
		return nil
	},
}

func init() {
	apiKeyCmd.AddCommand(apiKeyGenerateCmd)
	apiKeyCmd.AddCommand(apiKeyDeactivateCmd)
	apiKeyCmd.AddCommand(apiKeyRotateCmd)
	rootCmd.AddCommand(apiKeyCmd)
}

func newInternalAuthServiceForAPIKeyCommands(ctx context.Context) (service.InternalAuthService, *sql.DB, error) {
	dsn, err := config.LoadDSN()
	if err != nil {
		return nil, nil, err
	}

	db, err := openDatabase(contextOrBackground(ctx), dsn)
	if err != nil {
		return nil, nil, err
	}

	return service.NewInternalAuthService(repository.NewInternalAPIKeyRepository(db)), db, nil
}

func apiKeyError(serviceName string, err error) error {
	switch {
	case errors.Is(err, service.ErrServiceHasActiveAPIKey):
		return fmt.Errorf("service %q already has an active API key", serviceName)
	case errors.Is(err, service.ErrServiceHasNoActiveAPIKey):
		return fmt.Errorf("service %q has no active API key", serviceName)
	case errors.Is(err, service.ErrServiceNameRequired):
		return errors.New("service name must not be empty")
	}
	return err
}

func printAPIKey(cmd *cobra.Command, serviceName, key string) {
	fmt.Fprintf(cmd.OutOrStdout(), "service_name: %s\n", serviceName)
	fmt.Fprintf(cmd.OutOrStdout(), "api_key: %s\n", key)
	fmt.Fprintf(cmd.OutOrStdout(), "expires_at: %s\n", time.Now().AddDate(100, 0, 0).Format(time.RFC3339))
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
