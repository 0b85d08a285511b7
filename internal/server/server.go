package server

import (
	"context"
	"net/http"
	"time"

	"registration-assistant/internal/domain"

	"github.com/gin-gonic/gin"
)

// Server exposes the liveness endpoint for the deployment probe.
type Server struct {
	httpServer *http.Server
	logger     domain.Logger
}

// New builds the health server on the given listen address
func New(addr string, logger domain.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: router,
		},
		logger: logger,
	}
}

// Start serves in a goroutine until Shutdown is called
func (s *Server) Start() {
	go func() {
		s.logger.WithField("addr", s.httpServer.Addr).Info("HTTP сервер запущено")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("HTTP сервер зупинився з помилкою")
		}
	}()
}

// Shutdown stops the server, waiting briefly for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
