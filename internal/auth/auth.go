// Package auth gates chat commands behind a shared password and a persisted
// registration list.
package auth

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/servwatch/servwatch/internal/config"
)

// ChatListFile is the registration document file name.
const ChatListFile = "chat_list.json"

// Chat is one registered (channel, external identity) pair with its stable
// internal subscriber id.
type Chat struct {
	ID       string `json:"id"`
	Channel  string `json:"client_name"`
	Identity string `json:"identity"`
}

// ChatList is the persisted registration document.
type ChatList struct {
	Chats []Chat `json:"chats"`
}

type chatKey struct {
	channel  string
	identity string
}

// Gate maps (channel, identity) to internal subscriber ids and validates the
// shared password. The id lookup is a lazily built in-memory map, rebuilt
// from disk after every registration; reads between a write and the rebuild
// may be stale, which is acceptable, but writes are serialized through the
// store lock.
type Gate struct {
	password *string

	mu      sync.Mutex
	chatMap map[chatKey]string // nil until first Authenticate after invalidation

	chats *config.Store[ChatList]
	conf  *config.Store[config.Config]
}

// NewGate creates a Gate over the given stores. Call Init to load the
// configured password before serving commands.
func NewGate(conf *config.Store[config.Config], chats *config.Store[ChatList]) *Gate {
	return &Gate{conf: conf, chats: chats}
}

// OpenGate creates a Gate with stores under the state home dir.
func OpenGate(conf *config.Store[config.Config]) (*Gate, error) {
	home, err := config.Home()
	if err != nil {
		return nil, err
	}
	chats := config.NewStore(filepath.Join(home, ChatListFile), func() ChatList { return ChatList{} })
	return NewGate(conf, chats), nil
}

// Init loads the configured password.
func (g *Gate) Init() error {
	conf, err := g.conf.Read()
	if err != nil {
		return err
	}
	g.password = conf.Password
	return nil
}

// PasswordRequired reports whether a password is configured. When false the
// gate is disabled and every chat may issue commands.
func (g *Gate) PasswordRequired() bool {
	return g.password != nil
}

// ValidatePassword compares the candidate against the configured password.
// Callers must check PasswordRequired first.
func (g *Gate) ValidatePassword(candidate string) bool {
	return g.password != nil && *g.password == candidate
}

// SetPassword persists the shared password. nil disables the gate.
func (g *Gate) SetPassword(password *string) error {
	err := g.conf.Update(func(conf *config.Config) error {
		conf.Password = password
		return nil
	})
	if err != nil {
		return err
	}
	g.password = password
	return nil
}

// Register appends a (channel, identity) pair to the chat list. Registering
// an already known pair is a no-op, not a duplicate entry.
func (g *Gate) Register(channel, identity string) error {
	err := g.chats.Update(func(list *ChatList) error {
		for _, chat := range list.Chats {
			if chat.Channel == channel && chat.Identity == identity {
				return errAlreadyRegistered
			}
		}
		list.Chats = append(list.Chats, Chat{
			ID:       uuid.NewString(),
			Channel:  channel,
			Identity: identity,
		})
		return nil
	})
	if err == errAlreadyRegistered {
		return nil
	}
	if err != nil {
		return err
	}

	// Cached lookup is rebuilt lazily on the next Authenticate.
	g.mu.Lock()
	g.chatMap = nil
	g.mu.Unlock()
	return nil
}

var errAlreadyRegistered = fmt.Errorf("already registered")

// Authenticate resolves the internal subscriber id for a pair, rebuilding
// the lookup map from disk if it was invalidated.
func (g *Gate) Authenticate(channel, identity string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.chatMap == nil {
		list, err := g.chats.Read()
		if err != nil {
			return "", false
		}
		m := make(map[chatKey]string, len(list.Chats))
		for _, chat := range list.Chats {
			m[chatKey{chat.Channel, chat.Identity}] = chat.ID
		}
		g.chatMap = m
	}

	id, ok := g.chatMap[chatKey{channel, identity}]
	return id, ok
}

// Find resolves an internal subscriber id back to its channel and external
// identity, for outbound delivery. Ids issued while the gate was open carry
// the raw "channel:identity" form and decode without a chat list entry.
func (g *Gate) Find(id string) (channel, identity string, ok bool) {
	list, err := g.chats.Read()
	if err != nil {
		return "", "", false
	}
	for _, chat := range list.Chats {
		if chat.ID == id {
			return chat.Channel, chat.Identity, true
		}
	}
	if channel, identity, found := strings.Cut(id, ":"); found {
		return channel, identity, true
	}
	return "", "", false
}
