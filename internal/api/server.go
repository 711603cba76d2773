package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/dgallion1/docmind/internal/config"
	"github.com/dgallion1/docmind/internal/generate"
	"github.com/dgallion1/docmind/internal/match"
	"github.com/dgallion1/docmind/internal/pipeline"
	"github.com/dgallion1/docmind/internal/store"
)

// Server is the HTTP API and viewer server for docmind.
type Server struct {
	router    chi.Router
	processor *pipeline.Processor
	store     store.Store
	generator *generate.Generator
	engine    *match.Engine
	fragments *fragmentCache
	upgrader  websocket.Upgrader
	log       *slog.Logger
	cfg       config.Config
}

// NewServer creates and configures the HTTP server. gen may be nil, in which
// case LLM stats are unavailable.
func NewServer(proc *pipeline.Processor, st store.Store, gen *generate.Generator, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		processor: proc,
		store:     st,
		generator: gen,
		engine: match.New(match.Options{
			ProximityWindow: cfg.ProximityWindow,
			MinKeywordRunes: cfg.MinKeywordRunes,
		}, log),
		fragments: newFragmentCache(),
		log:       log,
		cfg:       cfg,
	}
	if cfg.CORSAllowAll {
		s.upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	corsOpts := cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}
	if s.cfg.CORSAllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleIndex)
	r.Get("/view/{fileID}", s.handleView)
	r.Get("/ws/{fileID}", s.handleSession)
	r.Get("/uploads/{name}", s.handleUploadedFile)

	r.Post("/api/upload", s.handleUpload)
	r.Get("/api/documents/{fileID}", s.handleGetDocument)
	r.Post("/api/highlight", s.handleHighlight)

	// Admin endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.AdminAPIKey, s.log))

		r.Get("/api/uploads", s.handleListUploads)
		r.Delete("/api/documents/{fileID}", s.handleDeleteDocument)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
