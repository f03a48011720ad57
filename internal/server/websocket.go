package server

import (
	"net/http"
	"time"

	"github.com/coder/websocket"
)

// handleReloadWS is the websocket variant of the reload feed for clients
// that prefer a socket over an event stream. Same contract: a "reload" text
// message per signal plus keep-alive pings.
func (s *Server) handleReloadWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// The reload feed carries no client data and no secrets;
		// origin policy matches the development CORS stance.
		InsecureSkipVerify: s.config.Server.Environment == "development",
	})
	if err != nil {
		s.logger.Warn(r.Context(), err, "websocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Discard inbound frames and learn about disconnects.
	ctx := conn.CloseRead(r.Context())

	sub := s.hub.Subscribe()
	defer s.hub.Unsubscribe(sub)

	keepAlive := time.NewTicker(s.config.Reload.KeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case _, ok := <-sub.C:
			if !ok {
				return
			}
			if err := conn.Write(ctx, websocket.MessageText, []byte("reload")); err != nil {
				return
			}

		case <-keepAlive.C:
			if err := conn.Ping(ctx); err != nil {
				return
			}
		}
	}
}
