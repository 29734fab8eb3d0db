// Package handler parses inbound chat text into commands and executes them.
package handler

import (
	"strconv"
	"strings"
)

// Command is the closed set of chat commands. Parsing is case-sensitive
// whitespace-token matching; anything outside the grammar, including a
// malformed line count, is Nothing.
type Command interface {
	command()
}

// LogsCommand fetches the last N log lines of a server.
type LogsCommand struct {
	Server string
	N      int
}

// HealthCheckCommand checks one server.
type HealthCheckCommand struct {
	Server string
}

// HealthCheckAllCommand checks every known server.
type HealthCheckAllCommand struct{}

// AlarmAddCommand subscribes the chat to an event.
type AlarmAddCommand struct {
	Event string
}

// AlarmRemoveCommand removes the chat's subscription to an event.
type AlarmRemoveCommand struct {
	Event string
}

// AlarmListCommand lists the chat's subscribed events.
type AlarmListCommand struct{}

// NothingCommand is any input outside the grammar.
type NothingCommand struct{}

func (LogsCommand) command()           {}
func (HealthCheckCommand) command()    {}
func (HealthCheckAllCommand) command() {}
func (AlarmAddCommand) command()       {}
func (AlarmRemoveCommand) command()    {}
func (AlarmListCommand) command()      {}
func (NothingCommand) command()        {}

// Parse maps free text onto the command grammar.
func Parse(text string) Command {
	tokens := strings.Fields(text)

	switch {
	case len(tokens) == 2 && tokens[0] == "/health":
		return HealthCheckCommand{Server: tokens[1]}
	case len(tokens) == 1 && tokens[0] == "/health":
		return HealthCheckAllCommand{}
	case len(tokens) == 3 && tokens[0] == "/logs":
		n, err := strconv.Atoi(tokens[2])
		if err != nil {
			return NothingCommand{}
		}
		return LogsCommand{Server: tokens[1], N: n}
	case len(tokens) == 3 && tokens[0] == "/alarm" && tokens[1] == "add":
		return AlarmAddCommand{Event: tokens[2]}
	case len(tokens) == 3 && tokens[0] == "/alarm" && tokens[1] == "remove":
		return AlarmRemoveCommand{Event: tokens[2]}
	case len(tokens) == 2 && tokens[0] == "/alarm" && tokens[1] == "list":
		return AlarmListCommand{}
	case len(tokens) == 1 && tokens[0] == "/alarm":
		return AlarmListCommand{}
	default:
		return NothingCommand{}
	}
}
