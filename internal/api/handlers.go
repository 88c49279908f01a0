package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/swingscan/swingscan/internal/universe"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"uptime":     time.Since(s.started).String(),
		"ws_clients": s.hub.Count(),
	})
}

func (s *Server) handleLastScan(w http.ResponseWriter, r *http.Request) {
	last := s.runner.Last()
	if last == nil {
		s.writeError(w, http.StatusNotFound, "no scan has completed yet")
		return
	}
	s.writeJSON(w, http.StatusOK, last)
}

// handleTriggerScan runs a scan synchronously and returns its result.
// The runner serializes runs, so a concurrent trigger waits its turn.
func (s *Server) handleTriggerScan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
	defer cancel()

	result, err := s.runner.Run(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Triggered scan failed")
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleUniverses(w http.ResponseWriter, r *http.Request) {
	out := make(map[string][]string)
	for _, name := range universe.Names() {
		symbols, err := universe.Get(name)
		if err != nil {
			continue
		}
		out[name] = symbols
	}
	s.writeJSON(w, http.StatusOK, out)
}

// handleWebsocket upgrades the connection and replays the latest result
// so a fresh client does not wait a full scan interval for data.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	s.hub.Add(conn)

	if last := s.runner.Last(); last != nil {
		if err := conn.WriteJSON(last); err != nil {
			s.hub.Remove(conn)
			return
		}
	}

	// Reader loop exists only to observe the close
	go func() {
		defer s.hub.Remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("Response encode failed")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
