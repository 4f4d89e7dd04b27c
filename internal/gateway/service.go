package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"datfeed/gateway/internal/boardmenu"
	"datfeed/gateway/internal/config"
	"datfeed/gateway/internal/models"
	"datfeed/gateway/internal/origin"
	"datfeed/gateway/internal/respcache"
	"datfeed/gateway/internal/storage"
)

// Fetcher retrieves origin resources through the persistent cache.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (origin.Result, error)
}

// Producer renders a feed document on a cache miss.
type Producer func(ctx context.Context) (models.FeedDocument, error)

// Service turns feed requests into documents, caching rendered output,
// origin fetches, board titles and the board menu.
type Service struct {
	cfg     *config.Config
	store   storage.Store
	fetcher Fetcher
	now     func() time.Time

	feeds   respcache.Store[models.FeedDocument]
	origins respcache.Store[origin.Result]
	titles  respcache.Store[string]
	menus   respcache.Store[*boardmenu.Directory]
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now for windows, eviction and cache expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithFeedCache replaces the rendered document cache.
func WithFeedCache(c respcache.Store[models.FeedDocument]) Option {
	return func(s *Service) { s.feeds = c }
}

// WithOriginCache replaces the fetch result cache.
func WithOriginCache(c respcache.Store[origin.Result]) Option {
	return func(s *Service) { s.origins = c }
}

// NewService wires the pipeline. Caches not supplied by options are
// in-memory and share the service clock.
func NewService(cfg *config.Config, store storage.Store, fetcher Fetcher, opts ...Option) *Service {
	s := &Service{
		cfg:     cfg,
		store:   store,
		fetcher: fetcher,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.feeds == nil {
		s.feeds = respcache.NewMemoryWithClock[models.FeedDocument](s.now)
	}
	if s.origins == nil {
		s.origins = respcache.NewMemoryWithClock[origin.Result](s.now)
	}
	if s.titles == nil {
		s.titles = respcache.NewMemoryWithClock[string](s.now)
	}
	if s.menus == nil {
		s.menus = respcache.NewMemoryWithClock[*boardmenu.Directory](s.now)
	}
	return s
}

// GetFeed returns the cached document for key or runs producer. Failures
// are remembered for ErrorCacheTTL and replayed as CachedUpstreamError.
func (s *Service) GetFeed(ctx context.Context, key string, ttl time.Duration, producer Producer) (models.FeedDocument, error) {
	return cacheAside(ctx, s.feeds, key, ttl, s.cfg.ErrorCacheTTL, producer)
}

func cacheAside[V any](ctx context.Context, c respcache.Store[V], key string, ttl, errTTL time.Duration, produce func(context.Context) (V, error)) (V, error) {
	if e, ok := c.Get(key); ok {
		if e.Negative() {
			var zero V
			return zero, &CachedUpstreamError{Err: e.Err}
		}
		return e.Value, nil
	}

	v, err := produce(ctx)
	if err != nil {
		if negativeCacheable(err) {
			// Store the root failure so nested caches do not stack wrappers.
			cause := err
			var cue *CachedUpstreamError
			if errors.As(err, &cue) {
				cause = cue.Err
			}
			c.Put(key, respcache.Entry[V]{Err: cause}, errTTL)
		}
		return v, err
	}

	c.Put(key, respcache.Entry[V]{Value: v}, ttl)
	return v, nil
}

// fetchOrigin memoizes origin fetches for OriginCacheTTL.
func (s *Service) fetchOrigin(ctx context.Context, url string) (origin.Result, error) {
	return cacheAside(ctx, s.origins, url, s.cfg.OriginCacheTTL, s.cfg.ErrorCacheTTL, func(ctx context.Context) (origin.Result, error) {
		return s.fetcher.Fetch(ctx, url)
	})
}

func (s *Service) originURL(host, board, file string) string {
	return fmt.Sprintf("%s://%s/%s/%s", s.cfg.OriginScheme, host, board, file)
}

// EvictStale removes origin records not accessed within maxAge and drops
// expired response cache entries.
func (s *Service) EvictStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := s.now().Add(-maxAge)
	n, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("evict stale origins: %w", err)
	}

	swept := s.feeds.Sweep() + s.origins.Sweep() + s.titles.Sweep() + s.menus.Sweep()
	log.Info().
		Int64("origins", n).
		Int("responses", swept).
		Time("cutoff", cutoff).
		Msg("Evicted stale cache entries")
	return n, nil
}

// EvictAll empties the origin store and every response cache.
func (s *Service) EvictAll(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("evict all origins: %w", err)
	}

	s.feeds.Flush()
	s.origins.Flush()
	s.titles.Flush()
	s.menus.Flush()

	log.Info().Int64("origins", n).Msg("Flushed all caches")
	return n, nil
}
