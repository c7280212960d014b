// Package server wires the tracker's HTTP routes
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mini-rodalies-3d/tracker/internal/handlers"
	"github.com/mini-rodalies-3d/tracker/internal/tracking"
	"github.com/mini-rodalies-3d/tracker/internal/trackform"
)

// Store is what the routes need from the journey store
type Store interface {
	handlers.JourneyReader
	handlers.Pinger
}

// Deps are the collaborators behind the routes
type Deps struct {
	Store       Store
	Sessions    tracking.Factory
	FormFetcher trackform.Fetcher
	CORSOrigins []string
}

// NewRouter builds the chi router for every tracker endpoint
func NewRouter(deps Deps) chi.Router {
	trackHandler := handlers.NewTrackHandler(deps.Store)
	formHandler := handlers.NewFormHandler(deps.FormFetcher)
	viewHandler := handlers.NewViewHandler(deps.Sessions, deps.CORSOrigins)
	healthHandler := handlers.NewHealthHandler(deps.Store)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	// Health
	r.Get("/health", healthHandler.Health)
	r.Get("/healthz", healthHandler.Healthz)

	// Tracking API
	r.Get("/api/track/{ticketId}", trackHandler.GetTrack)
	r.Post("/api/track", formHandler.Submit)

	// Tracking view
	r.Get("/track/{ticketId}/state", viewHandler.GetState)
	r.Get("/ws/track/{ticketId}", viewHandler.Stream)

	return r
}

// ListenAndServe serves handler on port until ctx is cancelled, then shuts
// down gracefully
func ListenAndServe(ctx context.Context, port string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Tracker server starting on :%s", port)
		log.Println("Tracking endpoints:")
		log.Println("  GET  /api/track/{ticketId}")
		log.Println("  POST /api/track")
		log.Println("  GET  /track/{ticketId}/state")
		log.Println("  GET  /ws/track/{ticketId}")
		log.Println("Health:")
		log.Println("  GET /health (with database check)")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	}
}
