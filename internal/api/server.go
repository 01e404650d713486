package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/coachhq/coachd/internal/pipeline"
	"github.com/coachhq/coachd/internal/session"
)

// Config wires the single HTTP application; route set and CORS policy are
// fixed here rather than per entry point.
type Config struct {
	Port           int
	AllowedOrigins []string
	PlaylistURL    string
	Sessions       *session.Manager
	Runner         *pipeline.Runner
	Logger         *slog.Logger
}

type Server struct {
	router      *chi.Mux
	srv         *http.Server
	port        int
	playlistURL string
	sessions    *session.Manager
	runner      *pipeline.Runner
	logger      *slog.Logger
}

func NewServer(cfg Config) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	s := &Server{
		router:      router,
		port:        cfg.Port,
		playlistURL: cfg.PlaylistURL,
		sessions:    cfg.Sessions,
		runner:      cfg.Runner,
		logger:      cfg.Logger,
	}

	router.Get("/health", s.health)
	router.Post("/chat", s.chat)
	router.Post("/chat/reset", s.resetChat)
	router.Get("/chat/history", s.chatHistory)
	router.Post("/chat/session", s.newSession)
	router.Post("/process", s.process)

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.srv = &http.Server{Addr: addr, Handler: s.router}
	s.logger.Info("API server starting", "addr", addr)
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "coachd",
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, map[string]string{"error": fmt.Sprintf(format, args...)})
}
