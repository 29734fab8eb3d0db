// Package channels adapts external messaging platforms to the generic
// inbound Message / outbound send model.
package channels

import (
	"context"
	"log/slog"

	"github.com/servwatch/servwatch/internal/bus"
	"github.com/servwatch/servwatch/internal/config"
	"github.com/servwatch/servwatch/internal/scheduler"
)

// Client is one configured channel adapter. Every client is also a
// scheduler task whose tick polls the platform for new inbound items and
// republishes them on the bus.
type Client interface {
	scheduler.Task

	// Send delivers one already-chunked message to a chat. Best-effort.
	Send(ctx context.Context, chatID, text string) bool
}

// New builds a client from its configuration, dispatching on the closed set
// of client kinds. Unrecognized kinds and broken configurations yield no
// client.
func New(cfg config.ClientConfig, b *bus.Bus, settings config.Settings) (Client, bool) {
	switch cfg.Kind {
	case "telegram":
		client, err := NewTelegramClient(cfg, b, settings)
		if err != nil {
			slog.Warn("Telegram client skipped", "name", cfg.Name, "error", err)
			return nil, false
		}
		return client, true
	case "slack":
		client, err := NewSlackClient(cfg, b, settings)
		if err != nil {
			slog.Warn("Slack client skipped", "name", cfg.Name, "error", err)
			return nil, false
		}
		return client, true
	default:
		slog.Warn("Unknown client kind", "name", cfg.Name, "kind", cfg.Kind)
		return nil, false
	}
}
