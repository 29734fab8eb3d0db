package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/exec"
	"strings"

	"github.com/servwatch/servwatch/internal/config"
)

// execOutput runs an external command and captures combined stdout+stderr.
// Package var so tests can stub the container runtime and log commands.
var execOutput = func(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Manager executes health checks, bounded log reads, and live log streaming
// against servers resolved through the directory.
type Manager struct {
	dir    *Directory
	client *http.Client
}

// NewManager creates a Manager. The probe timeout bounds each HTTP health
// check request.
func NewManager(dir *Directory, settings config.Settings) *Manager {
	return &Manager{
		dir:    dir,
		client: &http.Client{Timeout: settings.ProbeTimeout},
	}
}

// Healthcheck produces a fresh health result for the named server.
func (m *Manager) Healthcheck(ctx context.Context, name string) Health {
	srv, ok := m.dir.Find(name)
	if !ok {
		return healthWithReason(Unknown, fmt.Sprintf("Fail to find server: '%s'", name))
	}

	switch srv.Method.Kind {
	case MethodHTTP:
		return m.httpProbe(ctx, srv)
	case MethodContainer:
		return m.containerProbe(ctx, srv)
	default:
		return healthWithReason(Unknown, "Health check is not available")
	}
}

// HealthcheckAll checks every known server sequentially, in name order.
func (m *Manager) HealthcheckAll(ctx context.Context) []NamedHealth {
	servers := m.dir.All()
	out := make([]NamedHealth, 0, len(servers))
	for _, srv := range servers {
		out = append(out, NamedHealth{Name: srv.Name, Health: m.Healthcheck(ctx, srv.Name)})
	}
	return out
}

// NamedHealth pairs a server name with its health result.
type NamedHealth struct {
	Name   string
	Health Health
}

func (m *Manager) httpProbe(ctx context.Context, srv Server) Health {
	url, ok := srv.HealthCheckURL()
	if !ok {
		return healthWithReason(Unknown, "Health check is not available")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return healthWithReason(Down, err.Error())
	}
	resp, err := m.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return healthWithReason(Unhealthy, "request timed out")
		}
		return healthWithReason(Down, probeReason(err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return healthOf(Healthy)
	case resp.StatusCode >= 500:
		return healthWithReason(Unhealthy, resp.Status)
	default:
		return healthWithReason(Degraded, resp.Status)
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// probeReason strips the url.Error wrapper noise so the transport cause
// ("connection refused") survives into the health label.
func probeReason(err error) string {
	msg := err.Error()
	if idx := strings.LastIndex(msg, ": "); idx >= 0 {
		return msg[idx+2:]
	}
	return msg
}

// containerProbe maps the container runtime state onto the health variants.
func (m *Manager) containerProbe(ctx context.Context, srv Server) Health {
	out, err := execOutput(ctx, "docker", "inspect", "-f", "{{.State.Status}}", srv.Container)
	if err != nil {
		slog.Warn("Container probe failed", "server", srv.Name, "container", srv.Container, "error", err)
		return healthWithReason(Unknown, "container inspect failed")
	}

	switch strings.TrimSpace(string(out)) {
	case "running":
		return healthOf(Healthy)
	case "restarting":
		return healthWithReason(Degraded, "restarting")
	case "paused":
		return healthWithReason(Deregistered, "paused")
	case "removing":
		return healthWithReason(Deregistered, "removing")
	case "exited":
		return healthWithReason(Down, "exited")
	case "dead":
		return healthWithReason(Down, "dead")
	case "created":
		return healthWithReason(Unknown, "not started")
	default:
		return healthWithReason(Unknown, strings.TrimSpace(string(out)))
	}
}

// Kill sends a best-effort GET to the server kill endpoint.
func (m *Manager) Kill(ctx context.Context, name string) bool {
	srv, ok := m.dir.Find(name)
	if !ok {
		return false
	}
	url, ok := srv.KillURL()
	if !ok {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := m.client.Do(req)
	if err != nil {
		slog.Warn("Kill request failed", "server", name, "error", err)
		return false
	}
	resp.Body.Close()
	slog.Info("Kill signal sent", "server", name)
	return true
}

// Logs captures the last n lines from the server log command. Returns false
// when the server or its command is absent, or the command fails.
func (m *Manager) Logs(ctx context.Context, name string, n int) (string, bool) {
	srv, ok := m.dir.Find(name)
	if !ok || len(srv.LogCommand) == 0 {
		return "", false
	}

	argv := tailArgs(srv.LogCommand, n)
	out, err := execOutput(ctx, argv[0], argv[1:]...)
	if err != nil {
		slog.Warn("Log command failed", "server", name, "command", argv[0], "error", err)
		return "", false
	}
	return string(out), true
}

// tailArgs shapes the tail-count argument for the command. Container log
// tools take the count after the whole command; everything else gets the
// conventional -n flag right after the command name.
func tailArgs(command []string, n int) []string {
	count := fmt.Sprintf("%d", n)
	switch command[0] {
	case "docker", "podman":
		return append(append([]string{}, command...), "--tail", count)
	default:
		argv := []string{command[0], "-n", count}
		return append(argv, command[1:]...)
	}
}
