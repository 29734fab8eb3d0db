package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/servwatch/servwatch/internal/bus"
	"github.com/servwatch/servwatch/internal/config"
	"github.com/servwatch/servwatch/internal/server"
)

const helpMessage = `Invalid or unknown command.

Available commands:
- /logs <server_name> <lines>
  Fetches the last <lines> of logs from the specified server.
  Example: /logs main 100

- /health (server_name)
  (server_name): optional. If provided, returns the health status of the specified server.

- /alarm add <event_name>
  Subscribes this chat to the named event.

- /alarm remove <event_name>
  Removes this chat's subscription to the named event.

- /alarm list
  Lists the events this chat subscribes to.`

const (
	registrationRequiredMessage = "Registration required. Usage: /register <password>"
	invalidPasswordMessage      = "Invalid password. Usage: /register <password>"
	passwordNotRequiredMessage  = "Password is not required"
	registeredMessage           = "Successfully registered."
	logsUnavailableMessage      = "Logs are not available."
)

// Gateway delivers outbound chat messages.
type Gateway interface {
	SendMessage(ctx context.Context, channel, chatID, text string) bool
}

// ServerManager is the slice of the server manager the handler uses.
type ServerManager interface {
	Healthcheck(ctx context.Context, name string) server.Health
	HealthcheckAll(ctx context.Context) []server.NamedHealth
	Logs(ctx context.Context, name string, n int) (string, bool)
}

// Auth gates every command except registration.
type Auth interface {
	PasswordRequired() bool
	ValidatePassword(candidate string) bool
	Register(channel, identity string) error
	Authenticate(channel, identity string) (id string, ok bool)
}

// Alarms manages the chat's event subscriptions.
type Alarms interface {
	Subscribe(chatID, eventName string) error
	Unsubscribe(chatID, eventName string) error
	ListSubscribed(chatID string) ([]config.EventConfig, error)
}

// Handler authenticates, parses, and executes every inbound message, then
// sends the formatted response back through the gateway.
type Handler struct {
	gateway Gateway
	manager ServerManager
	auth    Auth
	alarms  Alarms
}

// New creates a Handler.
func New(gateway Gateway, manager ServerManager, auth Auth, alarms Alarms) *Handler {
	return &Handler{gateway: gateway, manager: manager, auth: auth, alarms: alarms}
}

// Run consumes the inbound stream until ctx is cancelled.
func (h *Handler) Run(ctx context.Context, b *bus.Bus) {
	for {
		msg, err := b.ConsumeInbound(ctx)
		if err != nil {
			return
		}
		h.Handle(ctx, msg)
	}
}

// Handle processes one inbound message end to end.
func (h *Handler) Handle(ctx context.Context, msg bus.Message) {
	slog.Debug("Handling message", "channel", msg.Channel, "chat", msg.ChatID)

	tokens := strings.Fields(msg.Text)
	if len(tokens) == 2 && tokens[0] == "/register" {
		h.reply(ctx, msg, h.register(msg, tokens[1]))
		return
	}

	id, ok := h.authenticate(msg)
	if !ok {
		h.reply(ctx, msg, registrationRequiredMessage)
		return
	}

	response, err := h.execute(ctx, id, Parse(msg.Text))
	if err != nil {
		response = fmt.Sprintf("[Err] %s", err)
	}
	h.reply(ctx, msg, response)
}

// register runs the /register flow, which bypasses the normal gate.
func (h *Handler) register(msg bus.Message, password string) string {
	if !h.auth.PasswordRequired() {
		return passwordNotRequiredMessage
	}
	if !h.auth.ValidatePassword(password) {
		return invalidPasswordMessage
	}
	if err := h.auth.Register(msg.Channel, msg.ChatID); err != nil {
		return fmt.Sprintf("Fail to register: %s", err)
	}
	return registeredMessage
}

// authenticate resolves the internal subscriber id. With no password
// configured the gate is open, but a registered id is still resolved when
// one exists so alarm commands stay per-chat.
func (h *Handler) authenticate(msg bus.Message) (string, bool) {
	id, ok := h.auth.Authenticate(msg.Channel, msg.ChatID)
	if ok {
		return id, true
	}
	if !h.auth.PasswordRequired() {
		// Open gate: fall back to the raw chat identity as the id.
		return msg.Channel + ":" + msg.ChatID, true
	}
	return "", false
}

func (h *Handler) execute(ctx context.Context, id string, cmd Command) (string, error) {
	switch c := cmd.(type) {
	case LogsCommand:
		text, ok := h.manager.Logs(ctx, c.Server, c.N)
		if !ok {
			return logsUnavailableMessage, nil
		}
		return text, nil

	case HealthCheckCommand:
		health := h.manager.Healthcheck(ctx, c.Server)
		return fmt.Sprintf("===\nServer: %s\nHealth: %s", c.Server, health), nil

	case HealthCheckAllCommand:
		results := h.manager.HealthcheckAll(ctx)
		lines := make([]string, 0, len(results))
		for _, r := range results {
			lines = append(lines, fmt.Sprintf("===\nServer: %s\nHealth: %s", r.Name, r.Health))
		}
		return strings.Join(lines, "\n"), nil

	case AlarmAddCommand:
		if err := h.alarms.Subscribe(id, c.Event); err != nil {
			return "", err
		}
		return "Successfully subscribed", nil

	case AlarmRemoveCommand:
		if err := h.alarms.Unsubscribe(id, c.Event); err != nil {
			return "", err
		}
		return "Successfully removed", nil

	case AlarmListCommand:
		configs, err := h.alarms.ListSubscribed(id)
		if err != nil {
			return "", err
		}
		blocks := make([]string, 0, len(configs))
		for _, ec := range configs {
			blocks = append(blocks, fmt.Sprintf("---\nname: %s\ntype: %s\ntarget: %s\nkeyword: %s",
				ec.Name, ec.Type, ec.Target, ec.Keyword))
		}
		return "--- list ---\n" + strings.Join(blocks, "\n\n"), nil

	default:
		return helpMessage, nil
	}
}

func (h *Handler) reply(ctx context.Context, msg bus.Message, text string) {
	if !h.gateway.SendMessage(ctx, msg.Channel, msg.ChatID, text) {
		slog.Warn("Reply delivery failed", "channel", msg.Channel, "chat", msg.ChatID)
	}
}
