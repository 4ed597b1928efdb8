// Package server exposes projected chat statistics over HTTP for headless
// use: projections as JSON and chart series as PNG.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/nixlim/chat-top/internal/events"
	"github.com/nixlim/chat-top/internal/fetch"
	"github.com/nixlim/chat-top/internal/projector"
	"github.com/nixlim/chat-top/internal/state"
	"github.com/nixlim/chat-top/internal/stats"
)

// Fetcher resolves one statistics record.
type Fetcher interface {
	Fetch(ctx context.Context, q fetch.Query) (*stats.Record, error)
}

// EventLog is the fetch activity served by /api/v1/events.
type EventLog interface {
	ListAll() []events.FormattedEvent
	ListByChat(chatID string) []events.FormattedEvent
	ListByKind(kind string) []events.FormattedEvent
}

type Service struct {
	addr      string
	fetcher   Fetcher
	projector *projector.Projector
	store     state.Store
	defaults  fetch.Query
	events    EventLog

	router *gin.Engine
	server *http.Server
}

// Option configures a Service.
type Option func(*Service)

// WithDefaults sets the query parameters used when a request omits them.
func WithDefaults(q fetch.Query) Option {
	return func(s *Service) {
		s.defaults = q
	}
}

func NewService(addr string, fetcher Fetcher, proj *projector.Projector, store state.Store, opts ...Option) *Service {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	if err := router.SetTrustedProxies(nil); err != nil {
		log.Err(err).Msg("Failed to set trusted proxies")
	}

	router.Use(
		gin.Recovery(),
		gin.LoggerWithWriter(log.Logger, "/health"),
	)

	s := &Service{
		addr:      addr,
		fetcher:   fetcher,
		projector: proj,
		store:     store,
		router:    router,
		server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(s)
	}

	s.initRouter()
	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Service) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves in the foreground until Stop is called. After
// Stop it returns nil at once.
func (s *Service) ListenAndServe() error {
	log.Info().Str("addr", s.addr).Msg("Starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down, waiting for in-flight requests until ctx
// ends. Stopping a server that never started is a no-op.
func (s *Service) Stop(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		log.Debug().Err(err).Msg("Failed to shutdown HTTP server")
		return err
	}

	log.Info().Msg("HTTP server stopped")
	return nil
}
