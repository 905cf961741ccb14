// Package server exposes the chatbot over HTTP, server-sent events and websockets.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/mohammad-safakhou/campusbot/config"
	"github.com/mohammad-safakhou/campusbot/internal/logging"
	"github.com/mohammad-safakhou/campusbot/internal/rag"
	"github.com/mohammad-safakhou/campusbot/models"
	"github.com/mohammad-safakhou/campusbot/session"
)

const shutdownTimeout = 10 * time.Second

// Searcher ranks chunks for the search endpoint.
type Searcher interface {
	Search(ctx context.Context, q string, k int) ([]models.SearchHit, error)
}

// Deps are the collaborators the handlers need.
type Deps struct {
	Answerer  *rag.Answerer
	Sessions  session.Store
	Search    Searcher
	Documents func() ([]models.Document, error)
	Logger    *logrus.Logger
}

type Server struct {
	echo *echo.Echo
	cfg  config.ServerConfig
	deps Deps
	log  *logrus.Entry
}

func New(cfg *config.Config, deps Deps) *Server {
	s := &Server{
		echo: echo.New(),
		cfg:  cfg.Server.Normalize(),
		deps: deps,
		log:  logging.WithComponent(deps.Logger, "http"),
	}
	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.cfg.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAccept},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if cfg.Telemetry.Enabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	api := e.Group("/api")
	api.POST("/chat", s.chat)
	api.POST("/chat/form", s.chatForm)
	api.GET("/search", s.search)
	api.GET("/debug/web-content", s.webContent)
	e.GET("/ws", s.chatSocket)
	return s
}

func (s *Server) Handler() http.Handler { return s.echo }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.cfg.Address).Info("chat server listening")
		errCh <- s.echo.Start(s.cfg.Address)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// handleError renders every failure as {"error": msg}.
func (s *Server) handleError(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
	}
	req := c.Request()
	entry := s.log.WithFields(logrus.Fields{
		"status": code,
		"method": req.Method,
		"path":   req.URL.Path,
		"remote": c.RealIP(),
	}).WithError(err)
	if code >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}
	if !c.Response().Committed {
		_ = c.JSON(code, map[string]string{"error": msg})
	}
}
