// Package server provides the HTTP REST API for the DSA study buddy.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonathan/dsa-buddy/internal/db"
	"github.com/jonathan/dsa-buddy/internal/llm"
	"github.com/jonathan/dsa-buddy/internal/mentor"
)

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	store      db.Store
	mentor     *mentor.Service
	client     llm.Client
}

// Config holds server configuration
type Config struct {
	Port        int
	DatabaseURL string
	APIKey      string
	Provider    string
	// Model overrides the standard-tier model when set.
	Model string
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	store, err := db.Open(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	llmConfig := llm.ConfigForProvider(cfg.Provider)
	if cfg.Model != "" {
		llmConfig = llmConfig.WithModel(llm.TierStandard, cfg.Model)
	}
	client, err := llm.NewClient(context.Background(), llmConfig, cfg.APIKey)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	return newServer(cfg, store, client), nil
}

// newServer wires an already-open store and client into a server. Tests
// use this directly to substitute fakes.
func newServer(cfg Config, store db.Store, client llm.Client) *Server {
	s := &Server{
		store:  store,
		client: client,
		mentor: mentor.NewService(store, client, mentor.Options{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.HandleFunc("GET /api/problems", s.handleListProblems)
	mux.HandleFunc("GET /api/problems/stats", s.handleStats)
	mux.HandleFunc("GET /api/problem/{id}", s.handleGetProblem)
	mux.HandleFunc("GET /api/status/{id}", s.handleGetStatus)
	mux.HandleFunc("POST /api/status/{id}", s.handleUpdateStatus)
	mux.HandleFunc("POST /api/ai/{step}", s.handleStep)
	mux.HandleFunc("POST /api/ai/all/{problemId}", s.handleAllSteps)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withLogging(s.withCORS(mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 600 * time.Second, // bulk generation runs seven model calls
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if err := s.client.Close(); err != nil {
		log.Printf("Error closing LLM client: %v", err)
	}
	s.store.Close()
	log.Println("Server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status including store reachability
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		log.Printf("Health check failed: %v", err)
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// handleError maps a domain error to its HTTP status and writes it out.
// Server-side failures are logged with their cause but reported
// generically.
func (s *Server) handleError(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("Request failed: %v", err)
	}
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	s.errorResponse(w, status, message)
}
