package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"trendsub/internal/config"
	"trendsub/internal/history"
	"trendsub/internal/logging"
	"trendsub/internal/store"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon
	router *gin.Engine

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

// HistoryResponse is the GET /api/history payload.
type HistoryResponse struct {
	Records []history.Record `json:"records"`
}

// SubscriptionsResponse is the GET /api/subscriptions payload.
type SubscriptionsResponse struct {
	Subscriptions []store.Subscription `json:"subscriptions"`
}

// RunResponse is the POST /api/run payload.
type RunResponse struct {
	Queued  bool   `json:"queued"`
	Message string `json:"message"`
}

// ClearResponse is the POST /api/processed/clear payload.
type ClearResponse struct {
	Removed int `json:"removed"`
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestIDMiddleware())

	srv := &apiServer{
		bind:   bind,
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
		router: router,
	}

	api := router.Group("/api")
	// The history delete route carries its token as the apikey query value.
	api.DELETE("/history", srv.deleteHistory)

	protected := api.Group("")
	protected.Use(authMiddleware(cfg.Paths.APIToken))
	protected.GET("/status", srv.status)
	protected.POST("/run", srv.runNow)
	protected.GET("/history", srv.listHistory)
	protected.GET("/subscriptions", srv.listSubscriptions)
	protected.POST("/processed/clear", srv.clearProcessed)
	protected.POST("/notifications/test", srv.testNotification)

	srv.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	s.mu.Lock()
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
	s.mu.Unlock()
}

func (s *apiServer) address() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) status(c *gin.Context) {
	c.JSON(http.StatusOK, s.daemon.Status(c.Request.Context()))
}

func (s *apiServer) runNow(c *gin.Context) {
	if s.daemon.admin.RunNow(c.Request.Context()) {
		c.JSON(http.StatusAccepted, RunResponse{Queued: true, Message: "run queued"})
		return
	}
	c.JSON(http.StatusOK, RunResponse{Queued: false, Message: "run already pending"})
}

func (s *apiServer) deleteHistory(c *gin.Context) {
	key := strings.TrimSpace(c.Query("key"))
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key required"})
		return
	}
	result := s.daemon.admin.DeleteHistory(c.Request.Context(), key, c.Query("apikey"))
	c.JSON(http.StatusOK, result)
}

func (s *apiServer) listHistory(c *gin.Context) {
	records, err := s.daemon.admin.History(c.Request.Context())
	if err != nil {
		s.logger.Error("history list failed", logging.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history unavailable"})
		return
	}
	if records == nil {
		records = []history.Record{}
	}
	c.JSON(http.StatusOK, HistoryResponse{Records: records})
}

func (s *apiServer) listSubscriptions(c *gin.Context) {
	subs, err := s.daemon.admin.Subscriptions(c.Request.Context())
	if err != nil {
		s.logger.Error("subscription list failed", logging.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "subscriptions unavailable"})
		return
	}
	if subs == nil {
		subs = []store.Subscription{}
	}
	c.JSON(http.StatusOK, SubscriptionsResponse{Subscriptions: subs})
}

func (s *apiServer) clearProcessed(c *gin.Context) {
	removed, err := s.daemon.admin.ClearProcessed(c.Request.Context())
	if err != nil {
		s.logger.Error("processed clear failed", logging.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "clear failed"})
		return
	}
	c.JSON(http.StatusOK, ClearResponse{Removed: removed})
}

func (s *apiServer) testNotification(c *gin.Context) {
	if err := s.daemon.admin.TestNotification(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": true})
}
