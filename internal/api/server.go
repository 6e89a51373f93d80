// Package api exposes the planner as a JSON API on a loopback address so a
// browser page on the same device can drive it.
package api

import (
	"context"
	"crypto/rand"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/harlequingg/taskplanner/internal/planner"
)

type Config struct {
	Addr           string
	Env            string
	Version        string
	JWTSecret      string
	TokenTTL       time.Duration
	TrustedOrigins []string
	Limiter        struct {
		Enabled             bool
		MaxRequestPerSecond float64
		Burst               int
	}
}

type Server struct {
	config  Config
	planner *planner.Planner
}

// New returns a Server. An empty JWT secret is replaced by a random one, which
// invalidates tokens across restarts.
func New(cfg Config, p *planner.Planner) (*Server, error) {
	if cfg.JWTSecret == "" {
		secret := make([]byte, 32)
		_, err := rand.Read(secret)
		if err != nil {
			return nil, err
		}
		cfg.JWTSecret = string(secret)
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	return &Server{
		config:  cfg,
		planner: p,
	}, nil
}

// Serve listens on cfg.Addr until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("starting %s server on %s", s.config.Env, s.config.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Println("shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
