// Package web serves a live view of an update run over HTTP.
//
// Routes
//
//	GET /healthz → liveness probe
//	GET /status  → JSON [Snapshot] of every row and the recent log
//	GET /events  → websocket stream: one "snapshot" event, then "status" and "log" events
//
// The [Hub] is registered as a pipeline observer, so the stream carries exactly
// what the terminal shows.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmeta/internal/server"
	"github.com/gorilla/websocket"
)

// Server exposes a [Hub] over HTTP.
type Server struct {
	hub      *Hub
	logger   *log.Logger
	router   *server.Mux
	upgrader websocket.Upgrader
	http     *http.Server
}

// NewServer registers the routes for hub.
func NewServer(hub *Hub, logger *log.Logger) *Server {
	s := &Server{
		hub:    hub,
		logger: logger,
		router: server.NewRouter(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	s.router.Use(server.RequestLogger(logger))
	s.router.Handle(http.MethodGet, "/healthz", http.HandlerFunc(s.health))
	s.router.Handle(http.MethodGet, "/status", http.HandlerFunc(s.status))
	s.router.Handle(http.MethodGet, "/events", http.HandlerFunc(s.events))
	return s
}

// Handler is the routed [http.Handler].
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on addr and serves in the background. It returns the bound address.
func (s *Server) Start(addr string) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.http = &http.Server{Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("event server stopped", "err", err)
		}
	}()
	return ln.Addr(), nil
}

// Shutdown closes every subscriber and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "timestamp": time.Now().Format(time.RFC3339)})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.hub.Snapshot())
}

func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	c := s.hub.subscribe(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.hub.unsubscribe(c)
}

func (s *Server) respondJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode json", "err", err)
	}
}
