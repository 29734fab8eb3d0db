package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/servwatch/servwatch/internal/config"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Manage server definitions",
}

var (
	serverName       string
	serverBaseURL    string
	serverContainer  string
	serverHealthPath string
	serverKillPath   string
	serverLogCommand string
)

var serverAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a server definition",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := config.OpenConfigStore()
		if err != nil {
			return err
		}
		return store.Update(func(conf *config.Config) error {
			if _, ok := conf.FindServer(serverName); ok {
				return fmt.Errorf("server '%s' already exists", serverName)
			}
			conf.Servers = append(conf.Servers, config.ServerConfig{
				Name:            serverName,
				BaseURL:         serverBaseURL,
				Container:       serverContainer,
				HealthCheckPath: serverHealthPath,
				KillPath:        serverKillPath,
				LogCommand:      serverLogCommand,
			})
			return nil
		})
	},
}

var serverRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a server definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := config.OpenConfigStore()
		if err != nil {
			return err
		}
		return store.Update(func(conf *config.Config) error {
			kept := make([]config.ServerConfig, 0, len(conf.Servers))
			for _, s := range conf.Servers {
				if s.Name != args[0] {
					kept = append(kept, s)
				}
			}
			conf.Servers = kept
			return nil
		})
	},
}

var serverListCmd = &cobra.Command{
	Use:   "list",
	Short: "List server definitions",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := config.OpenConfigStore()
		if err != nil {
			return err
		}
		conf, err := store.Read()
		if err != nil {
			return err
		}
		for _, s := range conf.Servers {
			cmd.Printf("%s\n  base_url: %s\n  container: %s\n  health_check_path: %s\n  log_command: %s\n",
				s.Name, s.BaseURL, s.Container, s.HealthCheckPath, s.LogCommand)
		}
		return nil
	},
}

func init() {
	serverAddCmd.Flags().StringVar(&serverName, "name", "", "Unique server name")
	serverAddCmd.Flags().StringVar(&serverBaseURL, "base-url", "", "Base URL, e.g. http://10.0.0.5:8080")
	serverAddCmd.Flags().StringVar(&serverContainer, "container", "", "Container reference for runtime status checks")
	serverAddCmd.Flags().StringVar(&serverHealthPath, "health-path", "", "HTTP health check path under the base URL")
	serverAddCmd.Flags().StringVar(&serverKillPath, "kill-path", "", "Kill endpoint path under the base URL")
	serverAddCmd.Flags().StringVar(&serverLogCommand, "log-command", "", "External log command, e.g. \"docker logs myapp\"")
	_ = serverAddCmd.MarkFlagRequired("name")

	serverCmd.AddCommand(serverAddCmd, serverRemoveCmd, serverListCmd)
	rootCmd.AddCommand(serverCmd)
}
