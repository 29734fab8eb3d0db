// Package events turns persisted event definitions into running watchers
// and routes matched events to subscribed chats.
package events

import "github.com/servwatch/servwatch/internal/config"

// Kind is the closed set of watch strategies derived from an event
// definition. Unrecognized types map to KindNone and spawn no watcher.
type Kind int

const (
	KindNone Kind = iota
	KindHealth
	KindLog
)

// Event is a resolved watch definition.
type Event struct {
	Name    string
	Kind    Kind
	Target  string
	Keyword string
}

// FromConfig derives an Event from its persisted definition.
func FromConfig(cfg config.EventConfig) Event {
	kind := KindNone
	switch cfg.Type {
	case "logs":
		kind = KindLog
	case "health":
		kind = KindHealth
	}
	return Event{
		Name:    cfg.Name,
		Kind:    kind,
		Target:  cfg.Target,
		Keyword: cfg.Keyword,
	}
}
