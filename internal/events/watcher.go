package events

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/servwatch/servwatch/internal/bus"
	"github.com/servwatch/servwatch/internal/config"
	"github.com/servwatch/servwatch/internal/scheduler"
	"github.com/servwatch/servwatch/internal/server"
)

// Stream is a live log line sequence with an explicit release.
type Stream interface {
	Lines() <-chan string
	Close()
}

// Manager is the slice of the server manager the watchers need.
type Manager interface {
	Healthcheck(ctx context.Context, name string) server.Health
	LogsStream(ctx context.Context, name string) (Stream, bool)
}

type serverManager struct {
	*server.Manager
}

func (m serverManager) LogsStream(ctx context.Context, name string) (Stream, bool) {
	s, ok := m.Manager.LogsStream(ctx, name)
	if !ok {
		return nil, false
	}
	return s, true
}

// WrapManager adapts the concrete server manager to the watcher interface.
func WrapManager(m *server.Manager) Manager {
	return serverManager{m}
}

// Supervisor reads the event definitions and spawns one watcher task per
// definition with a recognized kind. Task keys are "event:<name>", so with
// unique event names there is at most one active watcher per event.
type Supervisor struct {
	conf     *config.Store[config.Config]
	manager  Manager
	bus      *bus.Bus
	settings config.Settings
}

// NewSupervisor creates a Supervisor.
func NewSupervisor(conf *config.Store[config.Config], manager Manager, b *bus.Bus, settings config.Settings) *Supervisor {
	return &Supervisor{conf: conf, manager: manager, bus: b, settings: settings}
}

// Start loads all event definitions and spawns their watchers on the runner.
// Re-invoking replaces any watcher already running under the same key.
func (s *Supervisor) Start(ctx context.Context, runner *scheduler.Runner) error {
	conf, err := s.conf.Read()
	if err != nil {
		return err
	}

	for _, ec := range conf.Events {
		event := FromConfig(ec)
		task, ok := s.watcherFor(event)
		if !ok {
			slog.Warn("Event has unrecognized type, no watcher spawned", "event", ec.Name, "type", ec.Type)
			continue
		}
		if runner.Running(task.Name()) {
			runner.Stop(task.Name())
		}
		runner.Run(ctx, task)
	}
	return nil
}

func (s *Supervisor) watcherFor(event Event) (scheduler.Task, bool) {
	switch event.Kind {
	case KindHealth:
		return &healthWatch{
			event:    event,
			interval: s.settings.HealthWatchInterval,
			manager:  s.manager,
			bus:      s.bus,
		}, true
	case KindLog:
		return &logWatch{
			event:   event,
			manager: s.manager,
			bus:     s.bus,
		}, true
	default:
		return nil, false
	}
}

const watchTaskPrefix = "event:"

// healthWatch checks the target health every interval and emits an event
// when the stringified result contains the keyword. Check errors only
// suppress the match for that cycle; the watcher never terminates on them.
type healthWatch struct {
	event    Event
	interval time.Duration
	manager  Manager
	bus      *bus.Bus
}

func (w *healthWatch) Name() string            { return watchTaskPrefix + w.event.Name }
func (w *healthWatch) Interval() time.Duration { return w.interval }

func (w *healthWatch) OnTick(ctx context.Context) bool {
	health := w.manager.Healthcheck(ctx, w.event.Target)
	if !strings.Contains(health.String(), w.event.Keyword) {
		return true
	}

	msg := bus.EventMessage{
		EventName: w.event.Name,
		Text: fmt.Sprintf("Keyword '%s' found in health check of server '%s'\nHealth: %s",
			w.event.Keyword, w.event.Target, health),
	}
	if err := w.bus.PublishEvent(ctx, msg); err != nil {
		return false
	}
	return true
}

// logWatch follows the target log stream and emits an event per line
// containing the keyword. It terminates only when the stream ends or the
// server has no log command.
type logWatch struct {
	event   Event
	manager Manager
	bus     *bus.Bus
}

func (w *logWatch) Name() string            { return watchTaskPrefix + w.event.Name }
func (w *logWatch) Interval() time.Duration { return time.Second }

func (w *logWatch) OnTick(ctx context.Context) bool {
	stream, ok := w.manager.LogsStream(ctx, w.event.Target)
	if !ok {
		slog.Warn("Log watcher has no stream", "event", w.event.Name, "server", w.event.Target)
		return false
	}
	defer stream.Close()

	for {
		select {
		case <-ctx.Done():
			return false
		case line, open := <-stream.Lines():
			if !open {
				slog.Info("Log stream ended", "event", w.event.Name, "server", w.event.Target)
				return false
			}
			if !strings.Contains(line, w.event.Keyword) {
				continue
			}
			msg := bus.EventMessage{
				EventName: w.event.Name,
				Text: fmt.Sprintf("Keyword '%s' found in logs of server '%s'\nLog: %s",
					w.event.Keyword, w.event.Target, line),
			}
			if err := w.bus.PublishEvent(ctx, msg); err != nil {
				return false
			}
		}
	}
}
