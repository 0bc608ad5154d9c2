package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/news-harvester/internal/crawler"
	"github.com/JakeFAU/news-harvester/internal/metrics"
	"github.com/JakeFAU/news-harvester/internal/scheduler"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// SchedulerStatus exposes the scheduler to the health and schedule routes.
type SchedulerStatus interface {
	State() scheduler.State
	Triggers() []scheduler.Trigger
}

// RunStatus reports whether a harvest is in progress.
type RunStatus interface {
	Running() bool
}

// Server wires HTTP handlers to the article store and scheduler.
type Server struct {
	router    chi.Router
	articles  crawler.ArticleReader
	scheduler SchedulerStatus
	runs      RunStatus
	logger    *zap.Logger
}

// NewServer constructs a Server with middleware and routes. Any dependency may be nil;
// the matching route then reports it as unavailable.
func NewServer(
	articles crawler.ArticleReader,
	sched SchedulerStatus,
	runs RunStatus,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		articles:  articles,
		scheduler: sched,
		runs:      runs,
		logger:    logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(30 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Route("/v1", func(r chi.Router) {
		r.Get("/articles", s.listArticles)
		r.Get("/schedule", s.schedule)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

type healthResponse struct {
	Status    string `json:"status"`
	Scheduler string `json:"scheduler,omitempty"`
	Running   bool   `json:"harvest_running"`
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok"}
	if s.scheduler != nil {
		resp.Scheduler = string(s.scheduler.State())
	}
	if s.runs != nil {
		resp.Running = s.runs.Running()
	}
	writeJSON(w, http.StatusOK, resp)
}

type articleResponse struct {
	Title       string    `json:"judul"`
	PublishedAt time.Time `json:"tanggal"`
	Link        string    `json:"link"`
	Body        string    `json:"isi"`
	CrawledAt   time.Time `json:"crawled_at,omitzero"`
}

func (s *Server) listArticles(w http.ResponseWriter, r *http.Request) {
	if s.articles == nil {
		writeError(w, http.StatusServiceUnavailable, "article store does not support listing")
		return
	}
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}
	articles, err := s.articles.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("list articles failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list articles")
		return
	}
	out := make([]articleResponse, 0, len(articles))
	for _, a := range articles {
		out = append(out, articleResponse{
			Title:       a.Title,
			PublishedAt: a.PublishedAt,
			Link:        a.Link,
			Body:        a.Body,
			CrawledAt:   a.CrawledAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"articles": out, "count": len(out)})
}

func (s *Server) schedule(w http.ResponseWriter, _ *http.Request) {
	if s.scheduler == nil {
		writeError(w, http.StatusServiceUnavailable, "scheduler not running")
		return
	}
	type triggerResponse struct {
		Name     string    `json:"name"`
		Schedule string    `json:"schedule"`
		NextRun  time.Time `json:"next_run"`
		LastRun  time.Time `json:"last_run,omitzero"`
	}
	triggers := s.scheduler.Triggers()
	out := make([]triggerResponse, 0, len(triggers))
	for _, t := range triggers {
		out = append(out, triggerResponse{
			Name:     t.Name,
			Schedule: t.Describe(),
			NextRun:  t.Next,
			LastRun:  t.LastRun,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"state":    s.scheduler.State(),
		"triggers": out,
	})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		reqID, _ := r.Context().Value(requestIDKey{}).(string)
		s.logger.Debug("request completed",
			zap.String("request_id", reqID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("error", rec), zap.String("path", r.URL.Path))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

type requestIDKey struct{}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
