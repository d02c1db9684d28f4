// Package api serves the optional status and metrics endpoints while a
// crawl is running.
package api

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/CrsiX/WebsiteCrawler/internal/crawler"
	"github.com/CrsiX/WebsiteCrawler/internal/monitoring"
	"github.com/CrsiX/WebsiteCrawler/internal/storage"
)

// Server holds the dependencies for the HTTP status server. The cache
// and records stores may be nil when those integrations are disabled.
type Server struct {
	addr       string
	router     http.Handler
	httpServer *http.Server
	engine     *crawler.Engine
	records    *storage.RecordStore
	cache      *storage.RedisCache
	metrics    *monitoring.Metrics
	logger     *zap.Logger
}

func NewServer(addr string, eng *crawler.Engine, rs *storage.RecordStore, rc *storage.RedisCache, m *monitoring.Metrics, l *zap.Logger) *Server {
	s := &Server{
		addr:    addr,
		engine:  eng,
		records: rs,
		cache:   rc,
		metrics: m,
		logger:  l,
	}
	s.router = s.setupRouter()
	return s
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
