package cli

import (
	"github.com/spf13/cobra"

	"github.com/servwatch/servwatch/internal/config"
)

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Manage the shared registration password",
}

var passwordSetCmd = &cobra.Command{
	Use:   "set <password>",
	Short: "Set the registration password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := config.OpenConfigStore()
		if err != nil {
			return err
		}
		return store.Update(func(conf *config.Config) error {
			conf.Password = &args[0]
			return nil
		})
	},
}

var passwordClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the registration password, disabling the auth gate",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := config.OpenConfigStore()
		if err != nil {
			return err
		}
		return store.Update(func(conf *config.Config) error {
			conf.Password = nil
			return nil
		})
	},
}

func init() {
	passwordCmd.AddCommand(passwordSetCmd, passwordClearCmd)
	rootCmd.AddCommand(passwordCmd)
}
