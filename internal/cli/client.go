package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/servwatch/servwatch/internal/config"
)

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Manage messaging channel clients",
}

var (
	clientName    string
	clientKind    string
	clientToken   string
	clientChannel string
)

var clientAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a messaging channel client",
	RunE: func(cmd *cobra.Command, args []string) error {
		if clientKind != "telegram" && clientKind != "slack" {
			return fmt.Errorf("unknown client kind '%s' (want telegram or slack)", clientKind)
		}
		store, err := config.OpenConfigStore()
		if err != nil {
			return err
		}
		return store.Update(func(conf *config.Config) error {
			for _, c := range conf.Clients {
				if c.Name == clientName {
					return fmt.Errorf("client '%s' already exists", clientName)
				}
			}
			conf.Clients = append(conf.Clients, config.ClientConfig{
				Name:    clientName,
				Kind:    clientKind,
				Token:   clientToken,
				Channel: clientChannel,
			})
			return nil
		})
	},
}

var clientRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a messaging channel client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := config.OpenConfigStore()
		if err != nil {
			return err
		}
		return store.Update(func(conf *config.Config) error {
			kept := make([]config.ClientConfig, 0, len(conf.Clients))
			for _, c := range conf.Clients {
				if c.Name != args[0] {
					kept = append(kept, c)
				}
			}
			conf.Clients = kept
			return nil
		})
	},
}

var clientListCmd = &cobra.Command{
	Use:   "list",
	Short: "List messaging channel clients",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := config.OpenConfigStore()
		if err != nil {
			return err
		}
		conf, err := store.Read()
		if err != nil {
			return err
		}
		for _, c := range conf.Clients {
			cmd.Printf("%s (%s)\n", c.Name, c.Kind)
		}
		return nil
	},
}

func init() {
	clientAddCmd.Flags().StringVar(&clientName, "name", "", "Unique client name")
	clientAddCmd.Flags().StringVar(&clientKind, "kind", "", "Client kind: telegram or slack")
	clientAddCmd.Flags().StringVar(&clientToken, "token", "", "Platform bot token")
	clientAddCmd.Flags().StringVar(&clientChannel, "channel", "", "Slack channel id (slack kind only)")
	_ = clientAddCmd.MarkFlagRequired("name")
	_ = clientAddCmd.MarkFlagRequired("kind")
	_ = clientAddCmd.MarkFlagRequired("token")

	clientCmd.AddCommand(clientAddCmd, clientRemoveCmd, clientListCmd)
	rootCmd.AddCommand(clientCmd)
}
