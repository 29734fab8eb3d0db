package channels

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/slack-go/slack"

	"github.com/servwatch/servwatch/internal/bus"
	"github.com/servwatch/servwatch/internal/config"
)

// slackAPI is the slice of the Slack web API the client uses, implemented
// by *slack.Client and stubbed in tests.
type slackAPI interface {
	GetConversationHistoryContext(ctx context.Context, params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackClient polls one Slack channel's history with an oldest-timestamp
// cursor and republishes new user messages on the bus. Slack message
// timestamps are monotonically increasing within a channel, so the latest
// timestamp seen serves as the cursor.
type SlackClient struct {
	name      string
	channelID string
	api       slackAPI
	bus       *bus.Bus
	interval  time.Duration

	// cursor is the newest message timestamp already republished.
	cursor string
}

// NewSlackClient creates a client for one Slack bot token and channel.
func NewSlackClient(cfg config.ClientConfig, b *bus.Bus, settings config.Settings) (*SlackClient, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("slack client %q: token is required", cfg.Name)
	}
	if cfg.Channel == "" {
		return nil, fmt.Errorf("slack client %q: channel is required", cfg.Name)
	}
	return &SlackClient{
		name:      cfg.Name,
		channelID: cfg.Channel,
		api:       slack.New(cfg.Token),
		bus:       b,
		interval:  settings.PollInterval,
	}, nil
}

func (c *SlackClient) Name() string            { return c.name }
func (c *SlackClient) Interval() time.Duration { return c.interval }

// OnTick fetches history past the cursor and republishes each user message,
// oldest first. A fetch failure keeps the cursor and retries next tick.
func (c *SlackClient) OnTick(ctx context.Context) bool {
	// On the very first tick only record the current high-water mark, so
	// scrollback is not replayed as fresh commands.
	if c.cursor == "" {
		c.cursor = fmt.Sprintf("%d.000000", time.Now().Unix())
		return true
	}

	resp, err := c.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: c.channelID,
		Oldest:    c.cursor,
		Limit:     100,
	})
	if err != nil {
		slog.Warn("Slack poll failed", "client", c.name, "error", err)
		return true
	}

	// History comes back newest first.
	for i := len(resp.Messages) - 1; i >= 0; i-- {
		m := resp.Messages[i]
		if m.Timestamp > c.cursor {
			c.cursor = m.Timestamp
		}
		if m.BotID != "" || m.Text == "" {
			continue
		}
		msg := bus.Message{
			Channel: c.name,
			ChatID:  c.channelID,
			Text:    m.Text,
		}
		if err := c.bus.PublishInbound(ctx, msg); err != nil {
			return false
		}
	}
	return true
}

// Send delivers one chunk to the Slack channel.
func (c *SlackClient) Send(ctx context.Context, chatID, text string) bool {
	_, _, err := c.api.PostMessageContext(ctx, chatID, slack.MsgOptionText(text, false))
	if err != nil {
		slog.Warn("Slack send failed", "client", c.name, "chat", chatID, "error", err)
		return false
	}
	return true
}
