package server

import (
	"sort"
	"sync"

	"github.com/servwatch/servwatch/internal/config"
)

// Directory holds the resolved server definitions. Reads see an immutable
// snapshot; Load rebuilds the whole map under the writer lock.
type Directory struct {
	mu      sync.RWMutex
	servers map[string]Server

	conf *config.Store[config.Config]
}

// NewDirectory creates an empty Directory over the configuration store.
func NewDirectory(conf *config.Store[config.Config]) *Directory {
	return &Directory{
		servers: make(map[string]Server),
		conf:    conf,
	}
}

// Load replaces the directory contents from the persisted configuration.
// Callable again at any time to pick up configuration changes.
func (d *Directory) Load() error {
	conf, err := d.conf.Read()
	if err != nil {
		return err
	}

	servers := make(map[string]Server, len(conf.Servers))
	for _, sc := range conf.Servers {
		servers[sc.Name] = FromConfig(sc)
	}

	d.mu.Lock()
	d.servers = servers
	d.mu.Unlock()
	return nil
}

// Find resolves a server by name.
func (d *Directory) Find(name string) (Server, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.servers[name]
	return s, ok
}

// All returns every known server, sorted by name.
func (d *Directory) All() []Server {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Server, 0, len(d.servers))
	for _, s := range d.servers {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
