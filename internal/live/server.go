package live

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"camwatch/internal/logger"
	"camwatch/internal/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server exposes the live detection feed over HTTP: /ws streams shipped
// batches to websocket viewers, /healthz answers liveness probes.
type Server struct {
	hub    *Hub
	logger *logger.Logger
}

func NewServer(hub *Hub, logger *logger.Logger) *Server {
	return &Server{hub: hub, logger: logger}
}

// Start runs the hub and the HTTP listener in the background.
func (s *Server) Start(addr string) {
	go s.hub.Run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", s.handleHealth)

	go func() {
		s.logger.Info("Live view listening on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			s.logger.Error("Live view server stopped: %v", err)
		}
	}()
}

// BroadcastBatch sends one frame's shipped detections to all viewers.
func (s *Server) BroadcastBatch(detections []models.Detection) {
	msg, err := json.Marshal(detections)
	if err != nil {
		s.logger.Error("Failed to encode live batch: %v", err)
		return
	}
	s.hub.Broadcast(msg)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Websocket upgrade error: %v", err)
		return
	}

	s.hub.Register(conn)

	// Drain control frames; unregister when the viewer goes away.
	go func() {
		defer s.hub.Unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
