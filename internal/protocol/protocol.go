// Package protocol defines the wire types of the spry control protocol.
//
// A Command is externally tagged JSON: commands that carry fields encode as a
// single-key object ({"SetDirectory":{"path":"/srv"}}), commands without
// fields encode as a bare string ("GetStatus", "Stop"). Responses are plain
// objects with a success flag and a human-readable message.
package protocol

import (
	"encoding/json"
	"fmt"
)

// CommandKind identifies a control command.
type CommandKind string

const (
	KindSetDirectory CommandKind = "SetDirectory"
	KindSetFile      CommandKind = "SetFile"
	KindGetStatus    CommandKind = "GetStatus"
	KindStop         CommandKind = "Stop"
)

// Command is a decoded control command. Path is set only for SetDirectory
// and SetFile.
type Command struct {
	Kind CommandKind
	Path string
}

type pathPayload struct {
	Path string `json:"path"`
}

// MarshalJSON encodes the command in the externally tagged format.
func (c Command) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case KindSetDirectory, KindSetFile:
		return json.Marshal(map[CommandKind]pathPayload{
			c.Kind: {Path: c.Path},
		})
	case KindGetStatus, KindStop:
		return json.Marshal(string(c.Kind))
	default:
		return nil, fmt.Errorf("unknown command kind %q", c.Kind)
	}
}

// UnmarshalJSON decodes both forms of the externally tagged format.
func (c *Command) UnmarshalJSON(data []byte) error {
	// Unit commands arrive as a bare string.
	var unit string
	if err := json.Unmarshal(data, &unit); err == nil {
		switch CommandKind(unit) {
		case KindGetStatus, KindStop:
			c.Kind = CommandKind(unit)
			c.Path = ""
			return nil
		default:
			return fmt.Errorf("unknown command %q", unit)
		}
	}

	var tagged map[CommandKind]pathPayload
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("malformed command: %w", err)
	}
	if len(tagged) != 1 {
		return fmt.Errorf("command must have exactly one tag, got %d", len(tagged))
	}

	for kind, payload := range tagged {
		switch kind {
		case KindSetDirectory, KindSetFile:
			if payload.Path == "" {
				return fmt.Errorf("command %s requires a path", kind)
			}
			c.Kind = kind
			c.Path = payload.Path
			return nil
		default:
			return fmt.Errorf("unknown command %q", kind)
		}
	}

	return fmt.Errorf("empty command")
}

// SetDirectory builds a SetDirectory command.
func SetDirectory(path string) Command {
	return Command{Kind: KindSetDirectory, Path: path}
}

// SetFile builds a SetFile command.
func SetFile(path string) Command {
	return Command{Kind: KindSetFile, Path: path}
}

// GetStatus builds a GetStatus command.
func GetStatus() Command {
	return Command{Kind: KindGetStatus}
}

// Stop builds a Stop command.
func Stop() Command {
	return Command{Kind: KindStop}
}

// Response is the control protocol response body.
type Response struct {
	Success     bool    `json:"success"`
	Message     string  `json:"message"`
	CurrentPath *string `json:"current_path,omitempty"`
	Port        *int    `json:"port,omitempty"`
}

// Ok builds a success response.
func Ok(message string) Response {
	return Response{Success: true, Message: message}
}

// Error builds a failure response.
func Error(message string) Response {
	return Response{Success: false, Message: message}
}

// Status builds a success response carrying the current root and port.
func Status(message, currentPath string, port int) Response {
	return Response{
		Success:     true,
		Message:     message,
		CurrentPath: &currentPath,
		Port:        &port,
	}
}
