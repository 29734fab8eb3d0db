package server

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os/exec"
	"sync"
)

// LogStream is a live sequence of log lines backed by a follow-mode
// subprocess. The subprocess lifetime is tied to the handle: Close kills it,
// and cancelling the context passed to LogsStream kills it too. The line
// channel closes when the subprocess exits. The stream is infinite and not
// restartable; consumers must Close it to release the subprocess.
type LogStream struct {
	cmd   *exec.Cmd
	lines chan string
	once  sync.Once
	quit  chan struct{}
	done  chan struct{}
}

// Lines returns the merged stdout+stderr line channel.
func (s *LogStream) Lines() <-chan string { return s.lines }

// Close terminates the subprocess. Safe to call more than once and
// required even after the channel closes on its own.
func (s *LogStream) Close() {
	s.once.Do(func() {
		close(s.quit)
		if s.cmd.Process != nil {
			if err := s.cmd.Process.Kill(); err != nil {
				slog.Debug("Log stream kill", "error", err)
			}
		}
	})
	<-s.done
}

// LogsStream spawns the server log command in follow mode and merges its
// stdout and stderr into one ordered line channel. Returns false when the
// server or its log command is absent, or the spawn fails.
func (m *Manager) LogsStream(ctx context.Context, name string) (*LogStream, bool) {
	srv, ok := m.dir.Find(name)
	if !ok || len(srv.LogCommand) == 0 {
		return nil, false
	}

	argv := followArgs(srv.LogCommand)
	// CommandContext kills the subprocess when ctx is cancelled, covering
	// the forced-cancellation path of the owning task.
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		slog.Warn("Log stream stdout pipe", "server", name, "error", err)
		return nil, false
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		slog.Warn("Log stream stderr pipe", "server", name, "error", err)
		return nil, false
	}
	if err := cmd.Start(); err != nil {
		slog.Warn("Log stream spawn failed", "server", name, "command", argv[0], "error", err)
		return nil, false
	}

	stream := &LogStream{
		cmd:   cmd,
		lines: make(chan string),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go stream.pump(stdout, &wg)
	go stream.pump(stderr, &wg)

	go func() {
		wg.Wait()
		close(stream.lines)
		if err := cmd.Wait(); err != nil {
			slog.Debug("Log stream process exited", "server", name, "error", err)
		}
		close(stream.done)
	}()

	return stream, true
}

func (s *LogStream) pump(r io.Reader, wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		select {
		case s.lines <- scanner.Text():
		case <-s.quit:
			return
		}
	}
}

// followArgs appends the follow flag. tail, docker logs, podman logs and
// journalctl all accept -f.
func followArgs(command []string) []string {
	return append(append([]string{}, command...), "-f")
}
