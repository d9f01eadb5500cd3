package api

import (
	"errors"
	"os"
	"strings"
)

func (s *Server) registerRoutes() error {
	if s == nil || s.router == nil {
		return nil
	}

	api := s.router.Group("/api")
	apiKey := strings.TrimSpace(os.Getenv("TOMSTEER_API_KEY"))
	if apiKey != "" {
		api.Use(apiKeyAuthMiddleware(apiKey))
	} else if strings.EqualFold(strings.TrimSpace(os.Getenv("TOMSTEER_DISABLE_AUTH")), "true") {
		// Explicitly allow unauthenticated access.
	} else {
		return errors.New("api: missing auth configuration: set TOMSTEER_API_KEY or set TOMSTEER_DISABLE_AUTH=true")
	}

	api.GET("/health", s.handleHealth)
	api.GET("/benchmarks", s.handleListBenchmarks)

	api.GET("/runs", s.handleListRuns)
	api.GET("/runs/:id", s.handleGetRun)
	api.GET("/runs/:id/results", s.handleGetRunResults)

	api.GET("/history/:benchmark", s.handleBenchmarkHistory)
	api.GET("/compare", s.handleCompareRuns)

	api.GET("/vectors", s.handleListVectors)
	api.GET("/vectors/:name", s.handleGetVector)

	return nil
}
