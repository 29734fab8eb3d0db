package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/servwatch/servwatch/internal/config"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Manage event definitions",
}

var (
	eventName    string
	eventType    string
	eventTarget  string
	eventKeyword string
)

var eventAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an event definition",
	RunE: func(cmd *cobra.Command, args []string) error {
		if eventType != "logs" && eventType != "health" {
			return fmt.Errorf("unknown event type '%s' (want logs or health)", eventType)
		}
		store, err := config.OpenConfigStore()
		if err != nil {
			return err
		}
		return store.Update(func(conf *config.Config) error {
			if _, ok := conf.FindEvent(eventName); ok {
				return fmt.Errorf("event '%s' already exists", eventName)
			}
			if _, ok := conf.FindServer(eventTarget); !ok {
				return fmt.Errorf("target server '%s' is not defined", eventTarget)
			}
			conf.Events = append(conf.Events, config.EventConfig{
				Type:    eventType,
				Name:    eventName,
				Target:  eventTarget,
				Keyword: eventKeyword,
			})
			return nil
		})
	},
}

// Removing an event does not touch the subscription document: stale
// subscriptions stay behind and simply never fire.
var eventRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove an event definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := config.OpenConfigStore()
		if err != nil {
			return err
		}
		return store.Update(func(conf *config.Config) error {
			kept := make([]config.EventConfig, 0, len(conf.Events))
			for _, e := range conf.Events {
				if e.Name != args[0] {
					kept = append(kept, e)
				}
			}
			conf.Events = kept
			return nil
		})
	},
}

var eventListCmd = &cobra.Command{
	Use:   "list",
	Short: "List event definitions",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := config.OpenConfigStore()
		if err != nil {
			return err
		}
		conf, err := store.Read()
		if err != nil {
			return err
		}
		for _, e := range conf.Events {
			cmd.Printf("%s: %s '%s' on %s\n", e.Name, e.Type, e.Keyword, e.Target)
		}
		return nil
	},
}

func init() {
	eventAddCmd.Flags().StringVar(&eventName, "name", "", "Unique event name")
	eventAddCmd.Flags().StringVar(&eventType, "type", "", "Event type: logs or health")
	eventAddCmd.Flags().StringVar(&eventTarget, "target", "", "Target server name")
	eventAddCmd.Flags().StringVar(&eventKeyword, "keyword", "", "Keyword that triggers the event")
	_ = eventAddCmd.MarkFlagRequired("name")
	_ = eventAddCmd.MarkFlagRequired("type")
	_ = eventAddCmd.MarkFlagRequired("target")
	_ = eventAddCmd.MarkFlagRequired("keyword")

	eventCmd.AddCommand(eventAddCmd, eventRemoveCmd, eventListCmd)
	rootCmd.AddCommand(eventCmd)
}
