package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	apphw "github.com/bryanwahyu/clarify/internal/application/homework"
	domai "github.com/bryanwahyu/clarify/internal/domain/ai"
	"github.com/bryanwahyu/clarify/internal/domain/conversation"
	"github.com/bryanwahyu/clarify/internal/domain/homework"
	"github.com/bryanwahyu/clarify/internal/domain/speech"
	"github.com/bryanwahyu/clarify/internal/middleware"
)

// Deps are the collaborators the router mounts.
type Deps struct {
	Homework      *apphw.Service
	Sessions      *apphw.SessionStore
	Metrics       *middleware.Metrics
	Limiter       *middleware.RateLimiter
	Log           *zap.Logger
	Health        map[string]middleware.HealthChecker
	APIKeys       map[string]string
	CORSOrigins   []string
	MaxImageBytes int64
}

type Router struct {
	svc           *apphw.Service
	sessions      *apphw.SessionStore
	metrics       *middleware.Metrics
	log           *zap.Logger
	maxImageBytes int64
}

func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = middleware.NewMetrics()
	}
	if d.MaxImageBytes <= 0 {
		d.MaxImageBytes = 10 << 20
	}
	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := &Router{
		svc:           d.Homework,
		sessions:      d.Sessions,
		metrics:       d.Metrics,
		log:           d.Log,
		maxImageBytes: d.MaxImageBytes,
	}
	mux := chi.NewRouter()

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	mux.Use(chimw.RequestID)
	mux.Use(middleware.LoggingMiddleware(d.Log))
	mux.Use(chimw.Recoverer)
	mux.Use(d.Metrics.Middleware)
	mux.Use(middleware.APIKeyAuth(d.APIKeys))
	if d.Limiter != nil {
		mux.Use(middleware.RateLimitMiddleware(d.Limiter))
	}

	mux.Get("/health", middleware.LivenessHandler)
	mux.Get("/healthz", middleware.HealthHandler(d.Health))
	mux.Get("/readyz", middleware.ReadinessHandler)
	mux.Get("/metrics", d.Metrics.Handler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Get("/languages", r.wrap(r.handleLanguages))

		rt.Post("/homework/analyze", r.wrap(r.handleAnalyze))
		rt.Get("/homework", r.wrap(r.handleList))
		rt.Delete("/homework", r.wrap(r.handleDeleteAll))
		rt.Get("/homework/{id}", r.wrap(r.handleGet))
		rt.Delete("/homework/{id}", r.wrap(r.handleDelete))
		rt.Get("/homework/{id}/conversation", r.wrap(r.handleConversation))

		rt.Get("/sessions/{id}", r.wrap(r.handleSession))
		rt.Delete("/sessions/{id}", r.wrap(r.handleCloseSession))
		rt.Get("/sessions/{id}/audio", r.wrap(r.handleSessionAudio))
		rt.Get("/sessions/{id}/answer-audio", r.wrap(r.handleAnswerAudio))
		rt.Post("/sessions/{id}/ask", r.wrap(r.handleSessionAsk))

		rt.Post("/ask", r.wrap(r.handleAsk))
		rt.Post("/speech", r.wrap(r.handleSpeech))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// httpError carries a status chosen by the handler itself.
type httpError struct {
	status int
	msg    string
}

func (e *httpError) Error() string { return e.msg }

func badRequest(err error) error {
	return &httpError{status: http.StatusBadRequest, msg: err.Error()}
}

type errorBody struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		status, retryable := statusFor(err)
		if status >= 500 {
			r.log.Error("request failed",
				zap.String("path", req.URL.Path),
				zap.String("request_id", chimw.GetReqID(req.Context())),
				zap.Int("status", status),
				zap.Error(err),
			)
		}
		msg := err.Error()
		if status == http.StatusInternalServerError {
			msg = "internal error"
		}
		writeJSON(w, status, errorBody{Error: msg, Retryable: retryable})
	}
}

func statusFor(err error) (int, bool) {
	var he *httpError
	switch {
	case errors.As(err, &he):
		return he.status, false
	case errors.Is(err, homework.ErrInvalidRequest):
		return http.StatusBadRequest, false
	case errors.Is(err, apphw.ErrSessionNotFound),
		errors.Is(err, homework.ErrNotFound),
		errors.Is(err, conversation.ErrNotFound):
		return http.StatusNotFound, false
	case errors.Is(err, apphw.ErrSessionClosed):
		return http.StatusGone, false
	case errors.Is(err, apphw.ErrAlreadySubmitted), errors.Is(err, apphw.ErrNotSubmitted):
		return http.StatusConflict, false
	// quota errors are also analysis failures, check them first
	case errors.Is(err, domai.ErrQuotaExceeded):
		return http.StatusTooManyRequests, true
	case errors.Is(err, domai.ErrAnalysisFailure), errors.Is(err, speech.ErrAudio):
		return http.StatusBadGateway, true
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, true
	default:
		return http.StatusInternalServerError, false
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(req *http.Request, v any) error {
	dec := json.NewDecoder(req.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &httpError{status: http.StatusRequestEntityTooLarge, msg: "request body too large"}
		}
		return badRequest(errors.New("invalid JSON body: " + err.Error()))
	}
	return nil
}

func owner(req *http.Request) (string, error) {
	o := middleware.GetOwnerFromContext(req.Context())
	if o == "" {
		return "", &httpError{status: http.StatusUnauthorized, msg: "unauthenticated"}
	}
	return o, nil
}
