package events

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/servwatch/servwatch/internal/bus"
	"github.com/servwatch/servwatch/internal/server"
)

type stubStream struct {
	lines chan string
}

func (s *stubStream) Lines() <-chan string { return s.lines }
func (s *stubStream) Close()               {}

type stubManager struct {
	health  server.Health
	stream  *stubStream
	streams int
}

func (m *stubManager) Healthcheck(ctx context.Context, name string) server.Health {
	return m.health
}

func (m *stubManager) LogsStream(ctx context.Context, name string) (Stream, bool) {
	if m.stream == nil {
		return nil, false
	}
	m.streams++
	return m.stream, true
}

func healthEvent(keyword string) Event {
	return Event{Kind: KindHealth, Name: "main-down", Target: "main", Keyword: keyword}
}

func TestHealthWatchEmitsOnKeyword(t *testing.T) {
	b := bus.New()
	manager := &stubManager{health: server.Health{State: server.Down, Reason: "connection refused"}}
	w := &healthWatch{event: healthEvent("Down"), interval: time.Second, manager: manager, bus: b}

	if !w.OnTick(context.Background()) {
		t.Fatal("watcher stopped itself")
	}

	msg, ok := b.TryConsumeEvent()
	if !ok {
		t.Fatal("no event emitted")
	}
	if msg.EventName != "main-down" {
		t.Errorf("event name = %q", msg.EventName)
	}
	want := "Keyword 'Down' found in health check of server 'main'\nHealth: Down (connection refused)"
	if msg.Text != want {
		t.Errorf("text = %q, want %q", msg.Text, want)
	}
}

func TestHealthWatchKeywordMatchesReason(t *testing.T) {
	b := bus.New()
	manager := &stubManager{health: server.Health{State: server.Down, Reason: "connection refused"}}
	w := &healthWatch{event: healthEvent("refused"), interval: time.Second, manager: manager, bus: b}

	w.OnTick(context.Background())
	if _, ok := b.TryConsumeEvent(); !ok {
		t.Error("keyword in reason text did not match")
	}
}

func TestHealthWatchNoMatchNoEvent(t *testing.T) {
	b := bus.New()
	manager := &stubManager{health: server.Health{State: server.Healthy}}
	w := &healthWatch{event: healthEvent("Down"), interval: time.Second, manager: manager, bus: b}

	if !w.OnTick(context.Background()) {
		t.Fatal("watcher stopped itself")
	}
	if _, ok := b.TryConsumeEvent(); ok {
		t.Error("event emitted without a keyword match")
	}
}

func TestHealthWatchOneEventPerTick(t *testing.T) {
	b := bus.New()
	manager := &stubManager{health: server.Health{State: server.Down}}
	w := &healthWatch{event: healthEvent("Down"), interval: time.Second, manager: manager, bus: b}

	w.OnTick(context.Background())
	w.OnTick(context.Background())

	count := 0
	for {
		if _, ok := b.TryConsumeEvent(); !ok {
			break
		}
		count++
	}
	if count != 2 {
		t.Errorf("emitted %d events over 2 ticks, want 2", count)
	}
}

func TestLogWatchEmitsMatchingLines(t *testing.T) {
	b := bus.New()
	stream := &stubStream{lines: make(chan string, 3)}
	stream.lines <- "INFO started"
	stream.lines <- "ERROR boom"
	close(stream.lines)

	manager := &stubManager{stream: stream}
	w := &logWatch{
		event:   Event{Kind: KindLog, Name: "main-errors", Target: "main", Keyword: "ERROR"},
		manager: manager,
		bus:     b,
	}

	if w.OnTick(context.Background()) {
		t.Error("watcher kept running after the stream ended")
	}

	msg, ok := b.TryConsumeEvent()
	if !ok {
		t.Fatal("no event emitted")
	}
	want := "Keyword 'ERROR' found in logs of server 'main'\nLog: ERROR boom"
	if msg.Text != want {
		t.Errorf("text = %q, want %q", msg.Text, want)
	}
	if _, ok := b.TryConsumeEvent(); ok {
		t.Error("non-matching line emitted an event")
	}
}

func TestLogWatchStopsWithoutStream(t *testing.T) {
	b := bus.New()
	w := &logWatch{
		event:   Event{Kind: KindLog, Name: "main-errors", Target: "main", Keyword: "ERROR"},
		manager: &stubManager{},
		bus:     b,
	}

	if w.OnTick(context.Background()) {
		t.Error("watcher kept running with no stream available")
	}
}

func TestLogWatchStopsOnCancel(t *testing.T) {
	b := bus.New()
	stream := &stubStream{lines: make(chan string)}
	manager := &stubManager{stream: stream}
	w := &logWatch{
		event:   Event{Kind: KindLog, Name: "main-errors", Target: "main", Keyword: "ERROR"},
		manager: manager,
		bus:     b,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan bool, 1)
	go func() { done <- w.OnTick(ctx) }()
	cancel()

	select {
	case again := <-done:
		if again {
			t.Error("watcher asked to continue after cancellation")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on cancellation")
	}
}

func TestSupervisorSpawnsWatchers(t *testing.T) {
	supervisor := &Supervisor{settings: testSettings(), manager: &stubManager{}, bus: bus.New()}

	task, ok := supervisor.watcherFor(Event{Kind: KindHealth, Name: "a"})
	if !ok || task.Name() != "event:a" {
		t.Errorf("health watcher = %v, %v", task, ok)
	}
	task, ok = supervisor.watcherFor(Event{Kind: KindLog, Name: "b"})
	if !ok || task.Name() != "event:b" {
		t.Errorf("log watcher = %v, %v", task, ok)
	}
	if _, ok := supervisor.watcherFor(Event{Kind: KindNone, Name: "c"}); ok {
		t.Error("unrecognized kind produced a watcher")
	}
}

func TestEventFromConfigKinds(t *testing.T) {
	if e := FromConfig(testEventConfig("health")); e.Kind != KindHealth {
		t.Errorf("kind = %v", e.Kind)
	}
	if e := FromConfig(testEventConfig("logs")); e.Kind != KindLog {
		t.Errorf("kind = %v", e.Kind)
	}
	if e := FromConfig(testEventConfig("bogus")); e.Kind != KindNone {
		t.Errorf("kind = %v", e.Kind)
	}
}

func TestHealthWatchIntervalFromSettings(t *testing.T) {
	supervisor := &Supervisor{settings: testSettings(), manager: &stubManager{}, bus: bus.New()}
	task, _ := supervisor.watcherFor(Event{Kind: KindHealth, Name: "a"})
	if task.Interval() != 30*time.Second {
		t.Errorf("interval = %v", task.Interval())
	}
	if !strings.HasPrefix(task.Name(), watchTaskPrefix) {
		t.Errorf("task name %q missing prefix", task.Name())
	}
}
