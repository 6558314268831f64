// Package httpapi exposes the gateway's transport: a single WebSocket
// endpoint per spec.md §4.13, plus health and metrics probes. There is no
// REST session CRUD — a Session is created when the socket is accepted and
// ends when it closes.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/ent0n29/salestrain-gateway/internal/config"
	"github.com/ent0n29/salestrain-gateway/internal/logging"
	"github.com/ent0n29/salestrain-gateway/internal/observability"
	"github.com/ent0n29/salestrain-gateway/internal/protocol"
	"github.com/ent0n29/salestrain-gateway/internal/session"
)

// Dispatcher is the subset of orchestrator.Dispatcher this package drives.
// Declared locally so httpapi does not import orchestrator's Deps/Session
// internals, only the one method it needs to run a connection.
type Dispatcher interface {
	Run(ctx context.Context, inbound <-chan any, outbound chan<- any) error
}

// DispatcherFactory builds one Dispatcher per accepted connection.
type DispatcherFactory func() Dispatcher

type Server struct {
	cfg         config.Config
	newDispatch DispatcherFactory
	registry    *session.Registry
	metrics     *observability.Metrics
	log         logging.Logger
	upgrader    websocket.Upgrader
}

// New builds a Server. registry tracks connection liveness and enforces the
// inactivity timeout (spec.md §6); callers should start its janitor
// separately (session.Registry.StartJanitor) so shutdown can cancel it
// independent of the HTTP server's own lifecycle.
func New(cfg config.Config, newDispatch DispatcherFactory, registry *session.Registry, metrics *observability.Metrics, log logging.Logger) *Server {
	if log == nil {
		log = logging.NoOp{}
	}
	if registry == nil {
		registry = session.NewRegistry(cfg.SessionInactivityTimeout)
	}
	return &Server{
		cfg:         cfg,
		newDispatch: newDispatch,
		registry:    registry,
		metrics:     metrics,
		log:         log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})
	r.Get("/v1/voice/ws", s.handleVoiceWS)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ready",
		"active_sessions": s.registry.ActiveCount(),
	})
}

// handleVoiceWS upgrades the connection and runs one Dispatcher for its
// lifetime (spec.md §4.1, §4.13). Reader and writer run on their own
// goroutines; the Dispatcher goroutine is the only mutator of session state.
func (s *Server) handleVoiceWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	connID := s.registry.Register(cancel)
	s.metrics.ObserveSessionEvent("connected")
	if s.metrics != nil {
		s.metrics.ActiveSessions.Set(float64(s.registry.ActiveCount()))
	}
	defer func() {
		s.registry.Unregister(connID)
		s.metrics.ObserveSessionEvent("disconnected")
		if s.metrics != nil {
			s.metrics.ActiveSessions.Set(float64(s.registry.ActiveCount()))
		}
	}()

	inbound := make(chan any, 256)
	outbound := make(chan any, 256)
	runDone := make(chan struct{})

	dispatcher := s.newDispatch()
	go func() {
		defer close(runDone)
		if err := dispatcher.Run(ctx, inbound, outbound); err != nil && err != context.Canceled {
			s.log.Debug("httpapi: dispatcher run ended", "error", err.Error())
		}
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-outbound:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(msg); err != nil {
					if s.metrics != nil {
						s.metrics.WSWriteErrors.WithLabelValues("write_json").Inc()
					}
					cancel()
					return
				}
			}
		}
	}()

	conn.SetReadLimit(2 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

readLoop:
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			s.log.Debug("httpapi: malformed client frame", "error", err.Error())
			continue
		}
		s.registry.Touch(connID)
		select {
		case <-ctx.Done():
			break readLoop
		case inbound <- parsed:
		}
	}

	cancel()
	close(inbound)
	<-runDone
	<-writerDone
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
