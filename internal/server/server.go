package server

import (
	"context"
	"log"
	"net/http"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"tastebook-backend/config"
	"tastebook-backend/internal/router"
)

// Server represents the HTTP server
type Server struct {
	http *http.Server
}

// New creates a new server instance
func New(db *gorm.DB, cfg *config.Config) (*Server, error) {
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		redisClient = redis.NewClient(opts)
	}

	engine, err := router.New(db, cfg, redisClient)
	if err != nil {
		return nil, err
	}

	return &Server{
		http: &http.Server{
			Addr:    cfg.ServerHost + ":" + cfg.ServerPort,
			Handler: engine,
		},
	}, nil
}

// Start starts the server and blocks until it stops.
func (s *Server) Start() error {
	log.Printf("Listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
