package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/rapport-labs/rapport/internal/collect"
	"github.com/rapport-labs/rapport/internal/oracle"
	"github.com/rapport-labs/rapport/internal/qa"
	"github.com/rapport-labs/rapport/internal/session"
	"github.com/rapport-labs/rapport/internal/store"
)

// Engines holds one collection engine per questionnaire perspective.
type Engines struct {
	Contact *collect.Engine
	Self    *collect.Engine
}

type Server struct {
	router  *chi.Mux
	port    int
	engines Engines
	qa      *qa.Service
	logger  *slog.Logger
}

func NewServer(port int, apiToken string, engines Engines, qaSvc *qa.Service, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:  router,
		port:    port,
		engines: engines,
		qa:      qaSvc,
		logger:  logger,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/rapport/status", s.status)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(BearerAuthMiddleware(apiToken))

		r.Route("/collect/{target}", func(r chi.Router) {
			r.Post("/start", s.startCollection)
			r.Post("/{sessionID}/message", s.sendMessage)
			r.Get("/{sessionID}/progress", s.getProgress)
			r.Post("/{sessionID}/abandon", s.abandonSession)
		})

		r.Route("/qa/{sessionID}", func(r chi.Router) {
			r.Post("/question", s.askQuestion)
			r.Post("/supplement", s.supplementInfo)
			r.Post("/summary", s.generateSummary)
			r.Post("/end", s.endSession)
		})
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.router }

// BearerAuthMiddleware enforces a static bearer token when one is
// configured; an empty token disables auth (local development).
func BearerAuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" {
				auth := r.Header.Get("Authorization")
				if auth != "Bearer "+token {
					writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "rapport",
		"status":  "ready",
	})
}

// engineFor resolves the {target} route parameter.
func (s *Server) engineFor(r *http.Request) (*collect.Engine, error) {
	switch chi.URLParam(r, "target") {
	case "contact":
		return s.engines.Contact, nil
	case "self":
		return s.engines.Self, nil
	default:
		return nil, fmt.Errorf("%w: unknown collection target", session.ErrInvalidStatus)
	}
}

// callerID reads the authenticated subject from the X-User-ID header.
// Authentication itself lives upstream; this service only needs the
// identity for ownership checks.
func callerID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(r.Header.Get("X-User-ID")))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid X-User-ID header")
	}
	return id, nil
}

func sessionID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid session id")
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, session.ErrInvalidStatus), errors.Is(err, oracle.ErrMalformed):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, oracle.ErrUnavailable):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "oracle unavailable"})
	default:
		s.logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
