package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/CrsiX/WebsiteCrawler/internal/api"
	"github.com/CrsiX/WebsiteCrawler/internal/config"
	"github.com/CrsiX/WebsiteCrawler/internal/crawler"
	"github.com/CrsiX/WebsiteCrawler/internal/fetch"
	"github.com/CrsiX/WebsiteCrawler/internal/mirror"
	"github.com/CrsiX/WebsiteCrawler/internal/monitoring"
	"github.com/CrsiX/WebsiteCrawler/internal/scope"
	"github.com/CrsiX/WebsiteCrawler/internal/storage"
	"github.com/CrsiX/WebsiteCrawler/internal/urlutil"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	logger := newLogger(cfg.Verbose)
	defer logger.Sync()

	// Optional integrations.
	var cache *storage.RedisCache
	if cfg.RedisAddr != "" {
		cache = storage.NewRedisCache(cfg.RedisAddr)
		defer cache.Close()
	}
	var records *storage.RecordStore
	if cfg.PostgresURL != "" {
		records, err = storage.NewRecordStore(context.Background(), cfg.PostgresURL)
		if err != nil {
			logger.Error("failed to connect to postgres", zap.Error(err))
			return 1
		}
		defer records.Close()
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	metrics := monitoring.NewMetrics()

	writer, err := mirror.NewWriter(cfg.TargetDir, mirror.WriterOptions{
		AllowOverwrite:   cfg.AllowOverwrites,
		MentionOverwrite: cfg.MentionOverwrites,
	}, logger)
	if err != nil {
		logger.Error("target directory not usable", zap.Error(err))
		return 1
	}

	seed, err := urlutil.Parse(cfg.SeedURL)
	if err != nil {
		logger.Error("invalid seed URL", zap.String("url", cfg.SeedURL), zap.Error(err))
		return 2
	}
	policy := scope.NewPolicy(seed)

	fetcher, err := fetch.NewClient(fetch.Options{
		UserAgent:     cfg.UserAgent,
		Timeout:       time.Duration(cfg.FetchTimeout) * time.Second,
		ProxyURL:      cfg.ProxyURL,
		AllowRedirect: policy.Admit,
	})
	if err != nil {
		logger.Error("building HTTP client failed", zap.Error(err))
		return 1
	}
	engine, err := crawler.New(cfg, crawler.Options{
		Fetcher: fetcher,
		Writer:  writer,
		Metrics: metrics,
		Logger:  logger,
		Cache:   cache,
		Records: records,
		Limiter: limiter,
	})
	if err != nil {
		logger.Error("assembling crawl engine failed", zap.Error(err))
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-quit
		logger.Info("signal received, finishing in-flight fetches", zap.String("signal", sig.String()))
		cancel()
	}()

	var server *api.Server
	if cfg.StatusAddr != "" {
		server = api.NewServer(cfg.StatusAddr, engine, records, cache, metrics, logger)
		go func() {
			if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("status server failed", zap.Error(err))
			}
		}()
		logger.Info("status server listening", zap.String("addr", cfg.StatusAddr))
	}

	logger.Info("starting crawl",
		zap.String("seed", engine.Seed().String()),
		zap.String("target", cfg.TargetDir),
		zap.Int("workers", cfg.Workers))

	report := engine.Run(ctx)

	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("status server shutdown failed", zap.Error(err))
		}
	}

	out, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(out))

	switch {
	case report.Cancelled:
		return 130
	case report.Fetched == 0:
		return 1
	default:
		return 0
	}
}

func newLogger(verbose bool) *zap.Logger {
	if verbose {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	logger, _ := zap.NewProduction()
	return logger
}
