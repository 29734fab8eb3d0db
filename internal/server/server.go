// Package server resolves managed backend servers and executes health
// checks, bounded log reads, and live log streaming against them.
package server

import (
	"fmt"
	"strings"

	"github.com/servwatch/servwatch/internal/config"
)

// MethodKind is the closed set of health check strategies.
type MethodKind int

const (
	// MethodNone means the server has no health check configured.
	MethodNone MethodKind = iota
	// MethodHTTP probes an HTTP path under the server base URL.
	MethodHTTP
	// MethodContainer asks the container runtime for the container state.
	MethodContainer
)

// HealthCheckMethod selects the probe strategy for one server. Path is only
// set for MethodHTTP.
type HealthCheckMethod struct {
	Kind MethodKind
	Path string
}

// Server is a resolved server definition. Immutable during a run; the
// directory rebuilds it on reload.
type Server struct {
	Name       string
	BaseURL    string
	Container  string
	Method     HealthCheckMethod
	KillPath   string
	LogCommand []string
}

// FromConfig derives a Server from its persisted definition. The health
// check method is HTTP when a probe path is set, container when a container
// reference is set, and none otherwise.
func FromConfig(cfg config.ServerConfig) Server {
	method := HealthCheckMethod{Kind: MethodNone}
	switch {
	case cfg.HealthCheckPath != "":
		method = HealthCheckMethod{Kind: MethodHTTP, Path: cfg.HealthCheckPath}
	case cfg.Container != "":
		method = HealthCheckMethod{Kind: MethodContainer}
	}

	var logCommand []string
	if cfg.LogCommand != "" {
		logCommand = strings.Fields(cfg.LogCommand)
	}

	return Server{
		Name:       cfg.Name,
		BaseURL:    cfg.BaseURL,
		Container:  cfg.Container,
		Method:     method,
		KillPath:   cfg.KillPath,
		LogCommand: logCommand,
	}
}

// HealthCheckURL returns the HTTP probe URL, false when the server does not
// use the HTTP method or has no base URL.
func (s Server) HealthCheckURL() (string, bool) {
	if s.Method.Kind != MethodHTTP || s.BaseURL == "" {
		return "", false
	}
	return joinURL(s.BaseURL, s.Method.Path), true
}

// KillURL returns the kill endpoint URL, false when not configured.
func (s Server) KillURL() (string, bool) {
	if s.KillPath == "" || s.BaseURL == "" {
		return "", false
	}
	return joinURL(s.BaseURL, s.KillPath), true
}

func joinURL(base, path string) string {
	return fmt.Sprintf("%s/%s", strings.TrimRight(base, "/"), strings.TrimLeft(path, "/"))
}
