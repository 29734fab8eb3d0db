package channels

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/servwatch/servwatch/internal/bus"
	"github.com/servwatch/servwatch/internal/config"
	"github.com/servwatch/servwatch/internal/scheduler"
)

// Registry owns all channel adapters, runs their poll tasks, and implements
// the outbound message gateway. Inbound messages from every adapter fan in
// through the shared bus.
type Registry struct {
	clients  map[string]Client
	bus      *bus.Bus
	settings config.Settings
}

// NewRegistry creates an empty Registry.
func NewRegistry(b *bus.Bus, settings config.Settings) *Registry {
	return &Registry{
		clients:  make(map[string]Client),
		bus:      b,
		settings: settings,
	}
}

// Load builds the clients from the configured list, replacing the current
// set. Configurations that produce no client are skipped.
func (r *Registry) Load(conf config.Config) {
	clients := make(map[string]Client, len(conf.Clients))
	for _, cc := range conf.Clients {
		client, ok := New(cc, r.bus, r.settings)
		if !ok {
			continue
		}
		clients[client.Name()] = client
	}
	r.clients = clients
	slog.Info("Clients loaded", "count", len(clients))
}

// Start runs every client's poll task on the runner.
func (r *Registry) Start(ctx context.Context, runner *scheduler.Runner) {
	tasks := make([]scheduler.Task, 0, len(r.clients))
	for _, client := range r.clients {
		tasks = append(tasks, client)
	}
	runner.RunBatch(ctx, tasks)
}

// Find resolves a client by channel name.
func (r *Registry) Find(name string) (Client, bool) {
	c, ok := r.clients[name]
	return c, ok
}

// SendMessage splits the text into fixed-size chunks and sends them
// sequentially with a fixed inter-chunk delay, respecting platform rate
// limits. A failed chunk is logged and does not abort the remaining
// chunks. Returns false when the channel is unknown or any chunk failed.
func (r *Registry) SendMessage(ctx context.Context, channel, chatID, text string) bool {
	client, ok := r.clients[channel]
	if !ok {
		slog.Warn("Send to unknown channel", "channel", channel)
		return false
	}

	chunks := splitChunks(text, r.settings.ChunkSize)
	ok = true
	for i, chunk := range chunks {
		if i > 0 {
			select {
			case <-time.After(r.settings.ChunkDelay):
			case <-ctx.Done():
				return false
			}
		}
		if !client.Send(ctx, chatID, chunk) {
			ok = false
		}
	}
	return ok
}

// splitChunks cuts text into pieces of at most size bytes, backing off to
// the previous rune boundary so multi-byte characters stay intact.
func splitChunks(text string, size int) []string {
	if size <= 0 || len(text) <= size {
		if text == "" {
			return nil
		}
		return []string{text}
	}

	var chunks []string
	for len(text) > size {
		cut := size
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if cut == 0 {
			cut = size
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}
