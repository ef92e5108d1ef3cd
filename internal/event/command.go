package event

import (
	"encoding/json"
	"fmt"
)

// CommandType identifies the kind of command a client sends to the hub.
type CommandType string

const (
	CommandPing         CommandType = "ping"
	CommandStartSession CommandType = "start_session"
	CommandStopSession  CommandType = "stop_session"
)

// Command is the closed union of client-to-server messages.
type Command interface {
	CommandType() CommandType
	isCommand()
}

type cmdHeader struct {
	Type CommandType `json:"type"`
}

func (h *cmdHeader) CommandType() CommandType { return h.Type }
func (h *cmdHeader) isCommand()               {}

// Ping requests a pong reply carrying the server's current time.
type Ping struct {
	cmdHeader
}

func NewPing() *Ping {
	return &Ping{cmdHeader{Type: CommandPing}}
}

// StartSession asks the server to acknowledge a session start. The reply goes
// only to the requesting connection; the broadcast session transition stays
// driven by the producer.
type StartSession struct {
	cmdHeader
	Config map[string]any `json:"config,omitempty"`
}

func NewStartSession(config map[string]any) *StartSession {
	return &StartSession{cmdHeader: cmdHeader{Type: CommandStartSession}, Config: config}
}

// StopSession asks the server to acknowledge a session stop.
type StopSession struct {
	cmdHeader
}

func NewStopSession() *StopSession {
	return &StopSession{cmdHeader{Type: CommandStopSession}}
}

// EncodeCommand serializes a command to its wire form.
func EncodeCommand(c Command) ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode %s command: %w", c.CommandType(), err)
	}
	return data, nil
}

// UnknownCommandError names the rejected command type so the error reply can
// echo it back to the client.
type UnknownCommandError struct {
	Type string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown message type: %s", e.Type)
}

// ParseCommand parses an inbound frame. Malformed JSON and unknown types are
// distinct reject cases; neither closes the connection.
func ParseCommand(data []byte) (Command, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parse command: %w", err)
	}

	var cmd Command
	switch CommandType(probe.Type) {
	case CommandPing:
		cmd = &Ping{}
	case CommandStartSession:
		cmd = &StartSession{}
	case CommandStopSession:
		cmd = &StopSession{}
	default:
		return nil, &UnknownCommandError{Type: probe.Type}
	}

	if err := json.Unmarshal(data, cmd); err != nil {
		return nil, fmt.Errorf("parse %s command: %w", probe.Type, err)
	}
	return cmd, nil
}
