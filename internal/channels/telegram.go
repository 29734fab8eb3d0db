package channels

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/servwatch/servwatch/internal/bus"
	"github.com/servwatch/servwatch/internal/config"
)

// telegramAPI is the slice of the Telegram bot API the client uses,
// implemented by *tgbot.Bot and stubbed in tests.
type telegramAPI interface {
	GetUpdates(ctx context.Context, params *tgbot.GetUpdatesParams) ([]*models.Update, error)
	SendMessage(ctx context.Context, params *tgbot.SendMessageParams) (*models.Message, error)
}

// TelegramClient polls the Telegram Bot API with an explicit update-id
// cursor and republishes each message on the bus.
type TelegramClient struct {
	name     string
	api      telegramAPI
	bus      *bus.Bus
	interval time.Duration

	// offset is the long-poll cursor: one past the highest update id seen.
	// Only the poll tick touches it.
	offset int64
}

// NewTelegramClient creates a client for one Telegram bot token.
func NewTelegramClient(cfg config.ClientConfig, b *bus.Bus, settings config.Settings) (*TelegramClient, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram client %q: token is required", cfg.Name)
	}
	api, err := tgbot.New(cfg.Token, tgbot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("telegram client %q: %w", cfg.Name, err)
	}
	return &TelegramClient{
		name:     cfg.Name,
		api:      api,
		bus:      b,
		interval: settings.PollInterval,
	}, nil
}

func (c *TelegramClient) Name() string            { return c.name }
func (c *TelegramClient) Interval() time.Duration { return c.interval }

// OnTick fetches updates past the cursor, advances the cursor to one past
// the maximum id seen, and republishes each message. A fetch failure keeps
// the cursor and retries next tick.
func (c *TelegramClient) OnTick(ctx context.Context) bool {
	updates, err := c.api.GetUpdates(ctx, &tgbot.GetUpdatesParams{Offset: c.offset})
	if err != nil {
		slog.Warn("Telegram poll failed", "client", c.name, "error", err)
		return true
	}

	for _, update := range updates {
		if update.ID >= c.offset {
			c.offset = update.ID + 1
		}
	}

	for _, update := range updates {
		if update.Message == nil || update.Message.Text == "" {
			continue
		}
		msg := bus.Message{
			Channel: c.name,
			ChatID:  strconv.FormatInt(update.Message.Chat.ID, 10),
			Text:    update.Message.Text,
		}
		if err := c.bus.PublishInbound(ctx, msg); err != nil {
			return false
		}
	}
	return true
}

// Send delivers one chunk to a Telegram chat.
func (c *TelegramClient) Send(ctx context.Context, chatID, text string) bool {
	_, err := c.api.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		slog.Warn("Telegram send failed", "client", c.name, "chat", chatID, "error", err)
		return false
	}
	return true
}
