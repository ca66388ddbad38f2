// internal/api/api.go
// Provides StartServer and the HTTP surface: the websocket endpoint, health,
// the room listing and the optional static client.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erilali/roomrelay/internal/config"
	"github.com/erilali/roomrelay/internal/hub"
	"github.com/erilali/roomrelay/internal/logger"
	"github.com/nats-io/nats.go"
)

const (
	version         = "1.0.0"
	shutdownTimeout = 10 * time.Second
)

// Server bundles the hub with the NATS handles the HTTP handlers report on.
type Server struct {
	hub    *hub.Hub
	nc     *nats.Conn
	js     nats.JetStreamContext
	logger *logger.Logger
}

// NewServer wires handlers around h. nc and js may be nil.
func NewServer(h *hub.Hub, nc *nats.Conn, js nats.JetStreamContext, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{hub: h, nc: nc, js: js, logger: log}
}

// Routes returns the HTTP handler. staticDir, when set, is served at /.
func (s *Server) Routes(staticDir string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.hub.ServeWs)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/rooms", s.handleRooms)
	mux.HandleFunc("GET /api/rooms/{code}", s.handleRoom)
	if staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	natsStatus := "disabled"
	if s.nc != nil {
		natsStatus = "disconnected"
		if s.nc.Status() == nats.CONNECTED {
			natsStatus = "connected"
		}
	}
	health := map[string]interface{}{
		"status":  "ok",
		"nats":    natsStatus,
		"version": version,
		"uptime":  time.Since(s.hub.StartTime).Round(time.Second).String(),
		"stats":   s.hub.Stats(),
	}
	if s.js != nil {
		if info, err := s.js.StreamInfo(hub.EventStreamName); err == nil {
			health["jetstream"] = map[string]interface{}{
				"stream":    info.Config.Name,
				"messages":  info.State.Msgs,
				"bytes":     info.State.Bytes,
				"subjects":  info.Config.Subjects,
				"retention": fmt.Sprintf("%v", info.Config.MaxAge),
			}
		} else {
			health["jetstream"] = map[string]interface{}{"error": err.Error()}
		}
	}
	s.writeJSON(w, http.StatusOK, health)
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	rooms := s.hub.Snapshot()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"rooms":     rooms,
		"count":     len(rooms),
		"timestamp": time.Now(),
	})
}

func (s *Server) handleRoom(w http.ResponseWriter, r *http.Request) {
	code := hub.NormalizeCode(r.PathValue("code"))
	for _, room := range s.hub.Snapshot() {
		if room.Code == code {
			s.writeJSON(w, http.StatusOK, room)
			return
		}
	}
	http.Error(w, "Room not found", http.StatusNotFound)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Errorf("Error encoding response: %v", err)
	}
}

// StartServer connects the event mirror, builds the hub and serves until
// SIGINT or SIGTERM, then drains connections and NATS.
func StartServer(cfg config.Config, serverLogger *logger.Logger) error {
	nc, js := hub.ConnectNATS(cfg.NatsURL, serverLogger)

	opts := hub.Options{
		StatusDuration:   cfg.SpecialStatusDuration,
		StatusLabel:      cfg.SpecialStatusLabel,
		ExcludeRequester: !cfg.AllowSelfSelect(),
		Logger:           logger.NewLogger("hub"),
		PingInterval:     cfg.PingInterval,
		MaxFrameBytes:    cfg.MaxFrameBytes,
		SendBuffer:       cfg.SendBuffer,
	}
	if nc != nil {
		opts.Publisher = hub.NewNatsPublisher(nc, js)
	}
	h := hub.NewHub(opts)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           NewServer(h, nc, js, serverLogger).Routes(cfg.StaticDir),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		serverLogger.Infof("Server started at %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen and serve: %w", err)
		}
	case <-ctx.Done():
		serverLogger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Hijacked websocket connections are not closed by srv.Shutdown.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		serverLogger.Errorf("HTTP shutdown error: %v", err)
	}
	if err := h.Shutdown(shutdownCtx); err != nil {
		serverLogger.Errorf("Hub shutdown error: %v", err)
	}
	if nc != nil {
		if err := nc.Drain(); err != nil {
			serverLogger.Errorf("NATS drain error: %v", err)
		}
	}
	serverLogger.Info("Server stopped")
	return nil
}
