package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/conneroisu/spry/internal/errors"
	"github.com/conneroisu/spry/internal/protocol"
)

// handleControl is the single mutation entry point for the serving state.
// Command failures are reported as success=false responses and never surface
// as transport errors.
func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var cmd protocol.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		s.writeControlResponse(w, r, protocol.Error(fmt.Sprintf("invalid command: %v", err)))
		return
	}

	s.writeControlResponse(w, r, s.applyCommand(cmd))
}

func (s *Server) applyCommand(cmd protocol.Command) protocol.Response {
	switch cmd.Kind {
	case protocol.KindSetDirectory:
		canonical, err := s.state.SetDirectory(cmd.Path)
		if err != nil {
			return protocol.Error(errors.Message(err))
		}
		return protocol.Ok(fmt.Sprintf("Directory set to: %s", canonical))

	case protocol.KindSetFile:
		canonical, err := s.state.SetFile(cmd.Path)
		if err != nil {
			return protocol.Error(errors.Message(err))
		}
		return protocol.Ok(fmt.Sprintf("Direct file set to: %s", canonical))

	case protocol.KindGetStatus:
		return protocol.Status("Server running", s.state.Root(), s.config.Server.Port)

	case protocol.KindStop:
		s.scheduleStop()
		return protocol.Ok("Server stopping")

	default:
		return protocol.Error(fmt.Sprintf("unknown command %q", cmd.Kind))
	}
}

// scheduleStop exits the process after a grace delay so the success response
// reaches the caller first.
func (s *Server) scheduleStop() {
	grace := s.config.Reload.StopGrace

	go func() {
		time.Sleep(grace)
		s.exit(0)
	}()
}

func (s *Server) writeControlResponse(w http.ResponseWriter, r *http.Request, resp protocol.Response) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error(r.Context(), err, "failed to encode control response")
	}
}
