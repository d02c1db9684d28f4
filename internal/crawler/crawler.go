// Package crawler wires the frontier, fetch workers, extraction and
// the mirror output into one crawl engine.
package crawler

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/CrsiX/WebsiteCrawler/internal/config"
	"github.com/CrsiX/WebsiteCrawler/internal/content"
	"github.com/CrsiX/WebsiteCrawler/internal/domain"
	"github.com/CrsiX/WebsiteCrawler/internal/fetch"
	"github.com/CrsiX/WebsiteCrawler/internal/frontier"
	"github.com/CrsiX/WebsiteCrawler/internal/mirror"
	"github.com/CrsiX/WebsiteCrawler/internal/monitoring"
	"github.com/CrsiX/WebsiteCrawler/internal/scope"
	"github.com/CrsiX/WebsiteCrawler/internal/storage"
	"github.com/CrsiX/WebsiteCrawler/internal/urlutil"
)

// Options bundle the engine's collaborators. Fetcher, Writer, Metrics
// and Logger are required; Cache, Records and Limiter are optional.
type Options struct {
	Fetcher fetch.Fetcher
	Writer  *mirror.Writer
	Metrics *monitoring.Metrics
	Logger  *zap.Logger
	Cache   *storage.RedisCache
	Records *storage.RecordStore
	Limiter *rate.Limiter
}

// Engine manages the worker pool and drives a crawl from the seed URL
// to a complete mirror tree.
type Engine struct {
	cfg      *config.Config
	fetcher  fetch.Fetcher
	writer   *mirror.Writer
	metrics  *monitoring.Metrics
	logger   *zap.Logger
	cache    *storage.RedisCache
	records  *storage.RecordStore
	limiter  *rate.Limiter
	frontier *frontier.Frontier
	policy   scope.Policy
	mapper   *mirror.PathMapper

	seed    urlutil.URL
	started time.Time

	fetched      atomic.Int64
	failed       atomic.Int64
	skipped      atomic.Int64
	bytesWritten atomic.Int64
	cancelled    atomic.Bool

	refMu     sync.Mutex
	referrers map[string][]string
}

// New validates the seed URL and assembles the engine.
func New(cfg *config.Config, opts Options) (*Engine, error) {
	seed, err := urlutil.Parse(cfg.SeedURL)
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:      cfg,
		fetcher:  opts.Fetcher,
		writer:   opts.Writer,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		cache:    opts.Cache,
		records:  opts.Records,
		limiter:  opts.Limiter,
		frontier: frontier.New(),
		policy:   scope.NewPolicy(seed),
		mapper: mirror.NewPathMapper(mirror.MapperOptions{
			ASCIIOnly: cfg.ASCIIOnly,
			Lowered:   cfg.LoweredPaths,
		}),
		seed:      seed,
		referrers: make(map[string][]string),
	}, nil
}

// Seed returns the canonical seed URL.
func (e *Engine) Seed() urlutil.URL { return e.seed }

// Policy returns the crawl's origin policy, for use by the transport's
// redirect vetting.
func (e *Engine) Policy() scope.Policy { return e.policy }

// Run executes the crawl until the frontier drains or ctx is
// cancelled. In-flight fetches finish before Run returns; the report
// covers everything processed up to that point.
func (e *Engine) Run(ctx context.Context) *domain.Report {
	e.started = time.Now()
	e.frontier.Offer(e.seed)

	var wg sync.WaitGroup
	for i := 0; i < e.cfg.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			e.worker(ctx, id)
		}(i)
	}
	wg.Wait()

	if ctx.Err() != nil {
		e.cancelled.Store(true)
	}
	report := e.Snapshot()
	e.logger.Info("crawl finished",
		zap.Int64("fetched", report.Fetched),
		zap.Int64("failed", report.Failed),
		zap.Int64("skipped", report.Skipped),
		zap.Int64("bytes_written", report.BytesWritten),
		zap.Duration("duration", report.Duration),
		zap.Bool("cancelled", report.Cancelled))
	return report
}

// Snapshot returns the crawl counters as they stand right now.
func (e *Engine) Snapshot() *domain.Report {
	var duration time.Duration
	if !e.started.IsZero() {
		duration = time.Since(e.started)
	}
	return &domain.Report{
		Seed:         e.seed.String(),
		Fetched:      e.fetched.Load(),
		Failed:       e.failed.Load(),
		Skipped:      e.skipped.Load(),
		BytesWritten: e.bytesWritten.Load(),
		Duration:     duration,
		Cancelled:    e.cancelled.Load(),
	}
}

// FrontierStats exposes queue depth, in-flight and seen counts for the
// status endpoint.
func (e *Engine) FrontierStats() (pending, inflight, seen int) {
	return e.frontier.Stats()
}

func (e *Engine) worker(ctx context.Context, id int) {
	logger := e.logger.With(zap.Int("worker", id))
	for {
		u, ok := e.frontier.Claim(ctx)
		if !ok {
			return
		}
		e.updateGauges()
		e.process(ctx, u, logger)
		e.frontier.Complete(u)
		e.updateGauges()
	}
}

func (e *Engine) process(ctx context.Context, u urlutil.URL, logger *zap.Logger) {
	if e.cache != nil {
		cached, err := e.cache.IsRecentlyMirrored(ctx, u.Key())
		if err != nil {
			logger.Warn("redis lookup failed", zap.String("url", u.String()), zap.Error(err))
		} else if cached {
			logger.Debug("skipping recently mirrored URL", zap.String("url", u.String()))
			e.skipped.Add(1)
			e.metrics.SkippedTotal.Inc()
			return
		}
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return
		}
	}

	resp, err := e.fetchWithRetry(ctx, u, logger)
	final := u
	switch {
	case errors.Is(err, fetch.ErrOffOriginRedirect):
		logger.Info("redirect left origin, skipping", zap.String("url", u.String()))
		e.skipped.Add(1)
		e.metrics.SkippedTotal.Inc()
		e.record(ctx, &domain.Resource{
			URL: u, Status: domain.StatusSkipped, FailReason: "redirect left origin",
		})
		return
	case err != nil:
		logger.Warn("fetch failed", zap.String("url", u.String()), zap.Error(err))
		e.failed.Add(1)
		e.metrics.IncError("transport")
		e.record(ctx, &domain.Resource{
			URL: u, Status: domain.StatusFailed, FailReason: err.Error(),
		})
		return
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		logger.Warn("unexpected status",
			zap.String("url", u.String()),
			zap.Int("status", resp.StatusCode))
		e.failed.Add(1)
		e.metrics.IncError("http")
		e.record(ctx, &domain.Resource{
			URL: u, Status: domain.StatusFailed,
			FailReason: http.StatusText(resp.StatusCode),
		})
		return
	}

	// The body lands at the claimed URL's path: links in other pages
	// were rewritten against that assignment before the redirect could
	// be observed, and every rewritten link must stay backed by a file.
	selfPath := e.mapper.Assign(u)

	if resp.Redirected {
		final = resp.FinalURL
		if e.frontier.MarkVisited(final) {
			// Future links to the final location resolve to this file.
			e.mapper.Alias(final, u)
			logger.Debug("adopted redirect target",
				zap.String("url", u.String()),
				zap.String("final", final.String()))
		}
		// When the final URL was discovered independently its own claim
		// writes its own copy under its own path.
	}

	kind := content.Classify(resp.ContentType(), final, resp.Body)
	refs := content.Extract(kind, resp.Body, e.seed)

	replacements := make(map[int]string)
	for i, ref := range refs {
		if !ref.Kind.Followed() || !e.kindEnabled(ref.Kind) {
			continue
		}
		target, err := final.Resolve(ref.Raw)
		if err != nil {
			if errors.Is(err, urlutil.ErrMalformedURL) {
				logger.Debug("malformed reference",
					zap.String("in", final.String()),
					zap.String("ref", ref.Raw))
				e.metrics.IncError("malformed_url")
			}
			continue
		}
		if target.Key() == final.Key() || target.Key() == u.Key() {
			// Self-link: rewrite to this file, nothing to schedule.
			replacements[i] = mirror.RelativeTo(selfPath, selfPath)
			continue
		}
		if !e.policy.Admit(target) {
			continue // external reference stays verbatim
		}
		targetPath := e.mapper.Assign(target)
		replacements[i] = mirror.RelativeTo(selfPath, targetPath)
		e.addReferrer(target, final)
		e.frontier.Offer(target)
	}

	out := mirror.Rewrite(resp.Body, refs, replacements)

	res := &domain.Resource{
		URL:            final,
		Kind:           kind,
		Status:         domain.StatusFetched,
		LocalPath:      selfPath,
		Size:           int64(len(out)),
		DiscoveredFrom: e.discoveredFrom(final),
		FetchedAt:      time.Now(),
	}
	if kind == domain.KindHTML {
		res.Title, res.Description = ExtractPageMetadata(resp.Body)
	}

	if _, err := e.writer.Write(selfPath, out); err != nil {
		logger.Error("write failed",
			zap.String("url", final.String()),
			zap.String("path", selfPath),
			zap.Error(err))
		e.failed.Add(1)
		e.metrics.IncError("write")
		res.Status = domain.StatusFailed
		res.FailReason = err.Error()
		e.record(ctx, res)
		return
	}

	e.fetched.Add(1)
	e.metrics.IncFetched(kind.String())
	e.bytesWritten.Add(int64(len(out)))
	e.metrics.BytesWritten.Add(float64(len(out)))
	logger.Info("mirrored",
		zap.String("url", final.String()),
		zap.String("path", selfPath),
		zap.String("kind", kind.String()),
		zap.Int("bytes", len(out)))

	if e.cache != nil {
		ttl := time.Duration(e.cfg.RedisTTLHours) * time.Hour
		keys := []string{u.Key()}
		if final.Key() != u.Key() {
			keys = append(keys, final.Key())
		}
		for _, key := range keys {
			if err := e.cache.MarkMirrored(ctx, key, ttl); err != nil {
				logger.Warn("redis mark failed", zap.String("url", key), zap.Error(err))
			}
		}
	}
	e.record(ctx, res)
}

func (e *Engine) fetchWithRetry(ctx context.Context, u urlutil.URL, logger *zap.Logger) (*fetch.Response, error) {
	backoff := fetch.NewBackoff(e.cfg.MaxRetries, 0)
	for {
		resp, err := e.fetcher.Fetch(ctx, u)
		if !fetch.Retryable(resp, err) {
			return resp, err
		}
		delay, ok := backoff.Next()
		if !ok {
			return resp, err
		}
		e.metrics.RetriesTotal.Inc()
		logger.Warn("transient fetch failure, retrying",
			zap.String("url", u.String()),
			zap.Int("attempt", backoff.Attempts()),
			zap.Duration("delay", delay),
			zap.Error(err))
		if err := fetch.Sleep(ctx, delay); err != nil {
			return resp, err
		}
	}
}

func (e *Engine) kindEnabled(kind domain.RefKind) bool {
	switch kind {
	case domain.RefAnchor:
		return e.cfg.IncludeHyperlinks
	case domain.RefStylesheet, domain.RefImport:
		return e.cfg.IncludeStylesheets
	case domain.RefScript, domain.RefJSLiteral:
		return e.cfg.IncludeJavascript
	default:
		return false
	}
}

func (e *Engine) record(ctx context.Context, res *domain.Resource) {
	if e.records == nil {
		return
	}
	// Records should survive cancellation of the crawl itself.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := e.records.SaveResource(saveCtx, res); err != nil {
		e.logger.Error("saving crawl record failed",
			zap.String("url", res.URL.String()),
			zap.Error(err))
	}
}

func (e *Engine) addReferrer(target, from urlutil.URL) {
	e.refMu.Lock()
	defer e.refMu.Unlock()
	key := target.Key()
	if len(e.referrers[key]) < 8 {
		e.referrers[key] = append(e.referrers[key], from.String())
	}
}

func (e *Engine) discoveredFrom(u urlutil.URL) []string {
	e.refMu.Lock()
	defer e.refMu.Unlock()
	return append([]string(nil), e.referrers[u.Key()]...)
}

func (e *Engine) updateGauges() {
	pending, inflight, _ := e.frontier.Stats()
	e.metrics.FrontierDepth.Set(float64(pending))
	e.metrics.InFlight.Set(float64(inflight))
}
