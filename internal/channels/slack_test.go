package channels

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/slack-go/slack"

	"github.com/servwatch/servwatch/internal/bus"
)

type fakeSlackAPI struct {
	messages  []slack.Message
	err       error
	gotOldest []string
	posted    []string
	postErr   error
}

func (a *fakeSlackAPI) GetConversationHistoryContext(ctx context.Context, params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error) {
	a.gotOldest = append(a.gotOldest, params.Oldest)
	if a.err != nil {
		return nil, a.err
	}
	return &slack.GetConversationHistoryResponse{Messages: a.messages}, nil
}

func (a *fakeSlackAPI) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	a.posted = append(a.posted, channelID)
	return channelID, "", a.postErr
}

func slackMessage(ts, text, botID string) slack.Message {
	return slack.Message{Msg: slack.Msg{Timestamp: ts, Text: text, BotID: botID}}
}

func slackClient(api *fakeSlackAPI, b *bus.Bus) *SlackClient {
	return &SlackClient{name: "slack", channelID: "C123", api: api, bus: b, interval: time.Second}
}

func TestSlackFirstTickRecordsCursorOnly(t *testing.T) {
	api := &fakeSlackAPI{}
	c := slackClient(api, bus.New())

	if !c.OnTick(context.Background()) {
		t.Fatal("tick stopped the task")
	}
	if c.cursor == "" {
		t.Error("cursor not initialized on first tick")
	}
	if len(api.gotOldest) != 0 {
		t.Error("first tick fetched history instead of recording the cursor")
	}
}

func TestSlackPollPublishesOldestFirst(t *testing.T) {
	b := bus.New()
	api := &fakeSlackAPI{messages: []slack.Message{
		// Slack history responses are newest first.
		slackMessage("1700000002.000000", "second", ""),
		slackMessage("1700000001.000000", "first", ""),
	}}
	c := slackClient(api, b)
	c.cursor = "1700000000.000000"

	if !c.OnTick(context.Background()) {
		t.Fatal("tick stopped the task")
	}

	msg, err := b.ConsumeInbound(context.Background())
	if err != nil {
		t.Fatalf("ConsumeInbound: %v", err)
	}
	if msg.Text != "first" || msg.Channel != "slack" || msg.ChatID != "C123" {
		t.Errorf("message = %+v", msg)
	}
	msg, err = b.ConsumeInbound(context.Background())
	if err != nil {
		t.Fatalf("ConsumeInbound: %v", err)
	}
	if msg.Text != "second" {
		t.Errorf("message = %+v", msg)
	}

	if c.cursor != "1700000002.000000" {
		t.Errorf("cursor = %q", c.cursor)
	}
}

func TestSlackSkipsBotMessages(t *testing.T) {
	b := bus.New()
	api := &fakeSlackAPI{messages: []slack.Message{
		slackMessage("1700000002.000000", "from a bot", "B999"),
		slackMessage("1700000001.000000", "from a human", ""),
	}}
	c := slackClient(api, b)
	c.cursor = "1700000000.000000"

	c.OnTick(context.Background())

	msg, err := b.ConsumeInbound(context.Background())
	if err != nil {
		t.Fatalf("ConsumeInbound: %v", err)
	}
	if msg.Text != "from a human" {
		t.Errorf("text = %q", msg.Text)
	}
	// Bot messages still advance the cursor so they are not refetched.
	if c.cursor != "1700000002.000000" {
		t.Errorf("cursor = %q", c.cursor)
	}
}

func TestSlackPollFailureKeepsCursor(t *testing.T) {
	api := &fakeSlackAPI{err: errors.New("slack unreachable")}
	c := slackClient(api, bus.New())
	c.cursor = "1700000000.000000"

	if !c.OnTick(context.Background()) {
		t.Error("poll failure stopped the task")
	}
	if c.cursor != "1700000000.000000" {
		t.Errorf("cursor = %q", c.cursor)
	}
}

func TestSlackSend(t *testing.T) {
	api := &fakeSlackAPI{}
	c := slackClient(api, bus.New())

	if !c.Send(context.Background(), "C123", "hello") {
		t.Error("Send returned false")
	}
	if len(api.posted) != 1 || api.posted[0] != "C123" {
		t.Errorf("posted = %v", api.posted)
	}

	api.postErr = errors.New("channel_not_found")
	if c.Send(context.Background(), "C123", "hello") {
		t.Error("failed send reported success")
	}
}
