// Package config provides the persisted configuration documents and the
// JSON file store they live in.
package config

// Config is the root configuration document (config.json).
type Config struct {
	Password *string        `json:"password,omitempty"`
	Clients  []ClientConfig `json:"clients"`
	Servers  []ServerConfig `json:"servers"`
	Events   []EventConfig  `json:"events"`
}

// ClientConfig describes one messaging channel adapter.
type ClientConfig struct {
	Name string `json:"name"`
	Kind string `json:"kind"` // "telegram" or "slack"
	// Token is the platform bot token.
	Token string `json:"token,omitempty"`
	// Channel is the Slack channel id polled for inbound messages.
	// Unused by the Telegram kind.
	Channel string `json:"channel,omitempty"`
}

// ServerConfig describes one managed backend server.
type ServerConfig struct {
	Name            string `json:"name"`
	BaseURL         string `json:"base_url,omitempty"`
	Container       string `json:"container,omitempty"`
	HealthCheckPath string `json:"health_check_path,omitempty"`
	KillPath        string `json:"kill_path,omitempty"`
	// LogCommand is an external command line, tokenized on whitespace,
	// e.g. "docker logs myapp" or "tail /var/log/myapp.log".
	LogCommand string `json:"log_command,omitempty"`
}

// EventConfig is a persisted watch condition definition.
type EventConfig struct {
	Type    string `json:"type"` // "logs" or "health"
	Name    string `json:"name"`
	Target  string `json:"target"` // target server name
	Keyword string `json:"keyword"`
}

// FindServer returns the server config with the given name.
func (c *Config) FindServer(name string) (ServerConfig, bool) {
	for _, s := range c.Servers {
		if s.Name == name {
			return s, true
		}
	}
	return ServerConfig{}, false
}

// FindEvent returns the event config with the given name.
func (c *Config) FindEvent(name string) (EventConfig, bool) {
	for _, e := range c.Events {
		if e.Name == name {
			return e, true
		}
	}
	return EventConfig{}, false
}
