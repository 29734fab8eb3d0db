// Package cli implements the servwatch command line interface.
package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/servwatch/servwatch/internal/cli.version=1.2.3"
	version = "0.3.0"
	logo    = "\n" +
		"  ___  ___ _ ____   ____      ____ _| |_ ___| |__\n" +
		" / __|/ _ \\ '__\\ \\ / /\\ \\ /\\ / / _` | __/ __| '_ \\\n" +
		" \\__ \\  __/ |   \\ V /  \\ V  V / (_| | || (__| | | |\n" +
		" |___/\\___|_|    \\_/    \\_/\\_/ \\__,_|\\__\\___|_| |_|\n"
)

var rootCmd = &cobra.Command{
	Use:   "servwatch",
	Short: "servwatch - chat-driven server operations console",
	Long:  color.CyanString(logo) + "\nA chat-driven operations console and alerting engine for backend servers.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the servwatch version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("servwatch " + version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
