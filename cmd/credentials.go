package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fintech-reviews/revload/config"
	"github.com/fintech-reviews/revload/credentials"
)

// NewCredentialsCommand creates the 'credentials' command group.
func NewCredentialsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage the stored database password",
		Long: `Manage the database password in the system keyring.

The password is stored per database user. The REVLOAD_DB_PASSWORD
environment variable always takes precedence over the keyring.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set",
		Short: "Store the database password in the keyring",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCredentialsSet()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show whether a password is stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCredentialsShow()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the stored database password",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCredentialsClear()
		},
	})

	return cmd
}

func credentialsUser() (string, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return "", fmt.Errorf("loading configuration: %w", err)
	}
	user := cfg.DBConfig().User
	if user == "" {
		return "", fmt.Errorf("no database user configured")
	}
	return user, nil
}

func runCredentialsSet() error {
	user, err := credentialsUser()
	if err != nil {
		return err
	}

	password, err := promptForPassword(user)
	if err != nil {
		return err
	}
	if password == "" {
		return fmt.Errorf("password must not be empty")
	}

	if err := credentials.NewStore().SetPassword(user, password); err != nil {
		return fmt.Errorf("storing password: %w", err)
	}
	fmt.Printf("Password stored for %s\n", user)
	return nil
}

func runCredentialsShow() error {
	user, err := credentialsUser()
	if err != nil {
		return err
	}

	_, err = credentials.NewStore().GetPassword(user)
	if errors.Is(err, credentials.ErrNoPassword) {
		fmt.Printf("No password stored for %s\n", user)
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	fmt.Printf("Password is stored for %s\n", user)
	return nil
}

func runCredentialsClear() error {
	user, err := credentialsUser()
	if err != nil {
		return err
	}

	if err := credentials.NewStore().ClearPassword(user); err != nil {
		return fmt.Errorf("clearing password: %w", err)
	}
	fmt.Printf("Password cleared for %s\n", user)
	return nil
}
