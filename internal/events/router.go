package events

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/servwatch/servwatch/internal/bus"
	"github.com/servwatch/servwatch/internal/config"
)

// SubscribeFile is the subscription document file name.
const SubscribeFile = "subscribe.json"

// Subscribe is one event's subscriber set. Chat ids are internal subscriber
// ids, unique per event.
type Subscribe struct {
	EventName string   `json:"event_name"`
	ChatIDs   []string `json:"chat_ids"`
}

// SubscribeList is the persisted subscription document.
type SubscribeList struct {
	Subscribes []Subscribe `json:"subscribes"`
}

func (l *SubscribeList) find(eventName string) *Subscribe {
	for i := range l.Subscribes {
		if l.Subscribes[i].EventName == eventName {
			return &l.Subscribes[i]
		}
	}
	return nil
}

func (l *SubscribeList) contains(eventName, chatID string) bool {
	sub := l.find(eventName)
	if sub == nil {
		return false
	}
	for _, id := range sub.ChatIDs {
		if id == chatID {
			return true
		}
	}
	return false
}

// subscribedEvents returns the event names the chat id subscribes to.
func (l *SubscribeList) subscribedEvents(chatID string) []string {
	var names []string
	for _, sub := range l.Subscribes {
		for _, id := range sub.ChatIDs {
			if id == chatID {
				names = append(names, sub.EventName)
				break
			}
		}
	}
	return names
}

// Resolver maps an internal subscriber id back to its delivery address.
type Resolver interface {
	Find(id string) (channel, chatID string, ok bool)
}

// Gateway delivers outbound chat messages.
type Gateway interface {
	SendMessage(ctx context.Context, channel, chatID, text string) bool
}

// Router owns the persisted subscription list and delivers matched events
// to every subscriber. Delivery is best-effort: a failed send is logged and
// does not block the rest.
type Router struct {
	conf     *config.Store[config.Config]
	subs     *config.Store[SubscribeList]
	resolver Resolver
	gateway  Gateway
	bus      *bus.Bus
}

// NewRouter creates a Router over the given stores.
func NewRouter(conf *config.Store[config.Config], subs *config.Store[SubscribeList], resolver Resolver, gateway Gateway, b *bus.Bus) *Router {
	return &Router{conf: conf, subs: subs, resolver: resolver, gateway: gateway, bus: b}
}

// OpenSubscribeStore opens the subscription store under the state home dir.
func OpenSubscribeStore() (*config.Store[SubscribeList], error) {
	home, err := config.Home()
	if err != nil {
		return nil, err
	}
	return config.NewStore(filepath.Join(home, SubscribeFile), func() SubscribeList { return SubscribeList{} }), nil
}

// Subscribe adds the chat id to the event's subscriber set. It fails when no
// event with that name is configured, and is idempotent for chats already
// subscribed.
func (r *Router) Subscribe(chatID, eventName string) error {
	conf, err := r.conf.Read()
	if err != nil {
		return err
	}
	if _, ok := conf.FindEvent(eventName); !ok {
		return fmt.Errorf("Event '%s' does not exist in configuration", eventName)
	}

	return r.subs.Update(func(list *SubscribeList) error {
		if list.contains(eventName, chatID) {
			return nil
		}
		if sub := list.find(eventName); sub != nil {
			sub.ChatIDs = append(sub.ChatIDs, chatID)
			return nil
		}
		list.Subscribes = append(list.Subscribes, Subscribe{
			EventName: eventName,
			ChatIDs:   []string{chatID},
		})
		return nil
	})
}

// Unsubscribe removes the chat id from the event's subscriber set. Absent
// entries are a no-op.
func (r *Router) Unsubscribe(chatID, eventName string) error {
	return r.subs.Update(func(list *SubscribeList) error {
		sub := list.find(eventName)
		if sub == nil {
			return nil
		}
		kept := make([]string, 0, len(sub.ChatIDs))
		for _, id := range sub.ChatIDs {
			if id != chatID {
				kept = append(kept, id)
			}
		}
		sub.ChatIDs = kept
		return nil
	})
}

// ListSubscribed returns the event definitions the chat id subscribes to.
// Subscriptions whose event was removed from the configuration are orphaned
// silently: they resolve to no definition here and never fire.
func (r *Router) ListSubscribed(chatID string) ([]config.EventConfig, error) {
	list, err := r.subs.Read()
	if err != nil {
		return nil, err
	}
	names := list.subscribedEvents(chatID)

	conf, err := r.conf.Read()
	if err != nil {
		return nil, err
	}

	var out []config.EventConfig
	for _, ec := range conf.Events {
		for _, name := range names {
			if ec.Name == name {
				out = append(out, ec)
				break
			}
		}
	}
	return out, nil
}

// Task returns the router's scheduler unit, which drains the event queue
// every interval and dispatches each message.
func (r *Router) Task() *routerTask {
	return &routerTask{router: r}
}

type routerTask struct {
	router *Router
}

func (t *routerTask) Name() string            { return "event-router" }
func (t *routerTask) Interval() time.Duration { return time.Second }

func (t *routerTask) OnTick(ctx context.Context) bool {
	for {
		msg, ok := t.router.bus.TryConsumeEvent()
		if !ok {
			return true
		}
		t.router.dispatch(ctx, msg)
	}
}

// dispatch resolves the current subscriber list for the event and sends the
// text to every subscribed chat.
func (r *Router) dispatch(ctx context.Context, msg bus.EventMessage) {
	list, err := r.subs.Read()
	if err != nil {
		slog.Warn("Event dispatch: read subscriptions", "event", msg.EventName, "error", err)
		return
	}
	sub := list.find(msg.EventName)
	if sub == nil {
		slog.Debug("Event has no subscribers", "event", msg.EventName)
		return
	}

	for _, id := range sub.ChatIDs {
		channel, chatID, ok := r.resolver.Find(id)
		if !ok {
			slog.Warn("Event subscriber unresolvable", "event", msg.EventName, "subscriber", id)
			continue
		}
		if !r.gateway.SendMessage(ctx, channel, chatID, msg.Text) {
			slog.Warn("Event delivery failed", "event", msg.EventName, "channel", channel)
		}
	}
}
