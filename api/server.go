package api

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/cognalign/tomsteer/internal/config"
	"github.com/cognalign/tomsteer/internal/logger"
	"github.com/cognalign/tomsteer/internal/store"
)

// Server exposes stored evaluation results over a read-only HTTP API.
type Server struct {
	router *gin.Engine
	store  store.Store
	config *config.Config
	log    zerolog.Logger
}

func NewServer(cfg *config.Config, st store.Store) (*Server, error) {
	r := gin.New()
	s := &Server{
		router: r,
		store:  st,
		config: cfg,
		log:    logger.New(logLevel(cfg)),
	}
	s.registerMiddleware()
	if err := s.registerRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

func logLevel(cfg *config.Config) string {
	if cfg == nil {
		return ""
	}
	return cfg.LogLevel
}

func (s *Server) Run(addr string) error {
	if s == nil || s.router == nil {
		return errors.New("api: nil server")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = ":8080"
	}
	return s.router.Run(addr)
}
