package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	appChoice "github.com/lunch-picker/lunch-picker/internal/application/choice"
	appPick "github.com/lunch-picker/lunch-picker/internal/application/pick"
	appSession "github.com/lunch-picker/lunch-picker/internal/application/session"
	appUser "github.com/lunch-picker/lunch-picker/internal/application/user"
	"github.com/lunch-picker/lunch-picker/internal/domain/session"
	"github.com/lunch-picker/lunch-picker/internal/infrastructure/metrics"
	"github.com/lunch-picker/lunch-picker/internal/infrastructure/sse"
)

const defaultRequestTimeout = 30 * time.Second

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	sessionSvc     *appSession.Service
	choiceSvc      *appChoice.Service
	pickSvc        *appPick.Service
	userSvc        *appUser.Service
	sseHub         *sse.Hub
	health         HealthChecker
	logger         zerolog.Logger
	requestTimeout time.Duration
}

func NewServer(
	sessionSvc *appSession.Service,
	choiceSvc *appChoice.Service,
	pickSvc *appPick.Service,
	userSvc *appUser.Service,
	sseHub *sse.Hub,
	health HealthChecker,
	logger zerolog.Logger,
	requestTimeout time.Duration,
) *Server {
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	return &Server{
		sessionSvc:     sessionSvc,
		choiceSvc:      choiceSvc,
		pickSvc:        pickSvc,
		userSvc:        userSvc,
		sseHub:         sseHub,
		health:         health,
		logger:         logger.With().Str("component", "http").Logger(),
		requestTimeout: requestTimeout,
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthz)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		// Streams stay open for as long as the client listens.
		r.Get("/sessions/{sessionId}/events", s.sessionEvents)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.requestTimeout))

			r.Get("/users", s.listUsers)

			r.Post("/sessions", s.createSession)
			r.Get("/sessions/{sessionId}", s.getSession)
			r.Get("/sessions/{sessionId}/choices", s.listChoices)
			r.Post("/sessions/{sessionId}/choices", s.submitChoice)
			r.Post("/sessions/{sessionId}/pick", s.pickRandom)
		})
	})

	return r
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	access := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	})
	return func(next http.Handler) http.Handler {
		return hlog.NewHandler(logger)(access(next))
	}
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health.Ping(r.Context()); err != nil {
			s.logger.Error().Err(err).Msg("health check failed")
			respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "store unreachable")
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helpers
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

// respondServiceError maps domain error kinds onto status codes. Anything
// unrecognised is logged and reported without its details.
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, session.ErrForbidden):
		respondError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, session.ErrValidation):
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
	case errors.Is(err, session.ErrDuplicate):
		respondError(w, http.StatusConflict, "DUPLICATE_OPTION", err.Error())
	case errors.Is(err, session.ErrClosed):
		respondError(w, http.StatusConflict, "SESSION_CLOSED", err.Error())
	case errors.Is(err, session.ErrEmpty):
		respondError(w, http.StatusConflict, "NO_CHOICES", err.Error())
	case errors.Is(err, session.ErrStaleWrite):
		respondError(w, http.StatusConflict, "CONCURRENT_MODIFICATION", err.Error())
	default:
		hlog.FromRequest(r).Error().Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request failed")
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
	}
}

// parseSessionID reports a malformed id as not found: no session can have it.
func parseSessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionId"))
	if err != nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "session not found")
		return uuid.Nil, false
	}
	return id, true
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
