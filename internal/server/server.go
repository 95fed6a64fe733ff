// Package server exposes the public HTTP surface: the children and FAQ
// catalogs, session issuance, and the WebSocket chat endpoint.
package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/charitybridge/nico/internal/chat"
	"github.com/charitybridge/nico/internal/children"
	"github.com/charitybridge/nico/internal/faqs"
)

// Config holds server configuration.
type Config struct {
	Addr          string
	SessionSecret string
	AllowAll      bool // allow all CORS origins (dev mode)
}

// Server serves the charity website's API and chat transport.
type Server struct {
	cfg        Config
	children   *children.Store
	faqs       *faqs.Store
	chat       *chat.Handler
	router     chi.Router
	httpServer *http.Server
}

// New creates a server over the datastore and chat handler. The chat
// handler may be nil, in which case the chat routes respond 503.
func New(cfg Config, childStore *children.Store, faqStore *faqs.Store, chatHandler *chat.Handler) *Server {
	s := &Server{
		cfg:      cfg,
		children: childStore,
		faqs:     faqStore,
		chat:     chatHandler,
	}
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/children", s.handleListChildren)
		r.Get("/children/{id}", s.handleGetChild)
		r.Get("/faqs", s.handleListFAQs)
		r.Get("/faqs/{id}", s.handleGetFAQ)
		r.Post("/chat/session", s.handleNewSession)
	})

	r.Get("/ws/chat/{session}", s.handleChatSocket)

	return r
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured address.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("nico server listening on %s", s.cfg.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
