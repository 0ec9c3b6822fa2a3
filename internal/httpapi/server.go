package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/pkazmirchuk/workbot/internal/chat"
	"github.com/pkazmirchuk/workbot/internal/observability"
	"github.com/pkazmirchuk/workbot/internal/workflow"
)

// Dispatcher accepts inbound chat events for ordered per-session handling.
type Dispatcher interface {
	Submit(ctx context.Context, ev chat.Event) error
}

// ReadyCheck reports whether backing stores are reachable.
type ReadyCheck func(ctx context.Context) error

type Server struct {
	dispatcher Dispatcher
	registry   *PromptRegistry
	metrics    *observability.Metrics
	logger     *slog.Logger
	ready      ReadyCheck
	upgrader   websocket.Upgrader
}

func New(dispatcher Dispatcher, registry *PromptRegistry, metrics *observability.Metrics, logger *slog.Logger, ready ReadyCheck) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		dispatcher: dispatcher,
		registry:   registry,
		metrics:    metrics,
		logger:     logger.With("component", "httpapi"),
		ready:      ready,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
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

	r.Post("/v1/updates", s.handleUpdate)
	r.Get("/v1/chat/ws", s.handleChatWS)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			respondError(w, http.StatusServiceUnavailable, "not_ready", err.Error())
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

// handleUpdate ingests one transport webhook delivery. The transport owns
// delivery semantics; a 202 only means the event is queued for its session.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	defer r.Body.Close()

	ev, err := chat.ParseEvent(body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_event", err.Error())
		return
	}

	if err := s.dispatcher.Submit(r.Context(), ev); err != nil {
		if err == workflow.ErrDispatcherClosed {
			respondError(w, http.StatusServiceUnavailable, "shutting_down", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "submit_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]any{"status": "accepted"})
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
