package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/servwatch/servwatch/internal/auth"
	"github.com/servwatch/servwatch/internal/bus"
	"github.com/servwatch/servwatch/internal/channels"
	"github.com/servwatch/servwatch/internal/config"
	"github.com/servwatch/servwatch/internal/events"
	"github.com/servwatch/servwatch/internal/handler"
	"github.com/servwatch/servwatch/internal/scheduler"
	"github.com/servwatch/servwatch/internal/server"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the operations console until interrupted",
	RunE:  runConsole,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// runConsole wires every component and blocks until SIGINT/SIGTERM. Shutdown
// cancels all tasks without draining in-flight work.
func runConsole(cmd *cobra.Command, args []string) error {
	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}
	confStore, err := config.OpenConfigStore()
	if err != nil {
		return err
	}
	conf, err := confStore.Read()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := bus.New()
	runner := scheduler.NewRunner()

	gate, err := auth.OpenGate(confStore)
	if err != nil {
		return err
	}
	if err := gate.Init(); err != nil {
		return err
	}

	directory := server.NewDirectory(confStore)
	if err := directory.Load(); err != nil {
		return err
	}
	manager := server.NewManager(directory, settings)

	registry := channels.NewRegistry(b, settings)
	registry.Load(conf)
	registry.Start(ctx, runner)

	subsStore, err := events.OpenSubscribeStore()
	if err != nil {
		return err
	}
	router := events.NewRouter(confStore, subsStore, gate, registry, b)
	runner.Run(ctx, router.Task())

	supervisor := events.NewSupervisor(confStore, events.WrapManager(manager), b, settings)
	if err := supervisor.Start(ctx, runner); err != nil {
		return err
	}

	h := handler.New(registry, manager, gate, router)
	go h.Run(ctx, b)

	color.Green("=== servwatch running (ctrl-c to stop) ===")
	<-ctx.Done()

	runner.StopAll()
	return nil
}
