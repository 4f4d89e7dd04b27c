package origin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"datfeed/gateway/internal/models"
	"datfeed/gateway/internal/storage"
)

// defaultMaxBodySize caps a single origin resource.
const defaultMaxBodySize = 32 << 20

// ErrBodyTooLarge is wrapped in an UpstreamError when a response exceeds
// the size cap.
var ErrBodyTooLarge = errors.New("origin response exceeds size limit")

// Result is the outcome of a successful fetch.
type Result struct {
	Origin  models.CachedOrigin
	Changed bool // false when the origin answered 304
}

// Options tunes a Fetcher. Zero values fall back to defaults.
type Options struct {
	Timeout     time.Duration
	Concurrency int
	Rate        float64 // requests per second, 0 = unlimited
	UserAgent   string
	MaxBodySize int64 // bytes, 0 = 32 MiB
	Client      *http.Client
	Now         func() time.Time
}

// Fetcher performs conditional GETs against the origin and keeps the
// persistent origin cache current.
type Fetcher struct {
	store     storage.Store
	client    *http.Client
	timeout   time.Duration
	userAgent string
	maxBody   int64
	sem       *semaphore.Weighted
	limiter   *rate.Limiter
	now       func() time.Time
}

func NewFetcher(store storage.Store, opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = defaultMaxBodySize
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	// Copy so the caller's client keeps its own redirect policy.
	c := *client
	c.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	limit := rate.Inf
	burst := 1
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
		burst = max(1, int(opts.Rate))
	}

	return &Fetcher{
		store:     store,
		client:    &c,
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
		maxBody:   opts.MaxBodySize,
		sem:       semaphore.NewWeighted(int64(opts.Concurrency)),
		limiter:   rate.NewLimiter(limit, burst),
		now:       opts.Now,
	}
}

// Fetch returns the current content of url, revalidating any stored copy
// with If-Modified-Since.
func (f *Fetcher) Fetch(ctx context.Context, url string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	stored, err := f.store.Get(ctx, url)
	haveStored := err == nil
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return Result{}, fmt.Errorf("origin cache lookup: %w", err)
	}

	if err := f.sem.Acquire(ctx, 1); err != nil {
		return Result{}, &UpstreamError{URL: url, Err: err}
	}
	defer f.sem.Release(1)

	if err := f.limiter.Wait(ctx); err != nil {
		return Result{}, &UpstreamError{URL: url, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, &UpstreamError{URL: url, Err: err}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	if haveStored {
		req.Header.Set("If-Modified-Since", stored.LastModified.UTC().Format(http.TimeFormat))
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return Result{}, &UpstreamError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	log.Debug().
		Str("url", url).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Bool("conditional", haveStored).
		Msg("Origin responded")

	now := f.now().UTC()
	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
		if err != nil {
			return Result{}, &UpstreamError{URL: url, Status: resp.StatusCode, Err: err}
		}
		if int64(len(body)) > f.maxBody {
			return Result{}, &UpstreamError{URL: url, Status: resp.StatusCode, Err: ErrBodyTooLarge}
		}

		lastModified := now
		if lm := resp.Header.Get("Last-Modified"); lm != "" {
			if t, err := http.ParseTime(lm); err == nil {
				lastModified = t.UTC()
			}
		}

		o := models.CachedOrigin{
			URL:          url,
			Content:      body,
			LastModified: lastModified,
			LastAccess:   now,
		}
		if err := f.store.Put(ctx, o); err != nil {
			return Result{}, fmt.Errorf("origin cache store: %w", err)
		}
		return Result{Origin: o, Changed: true}, nil

	case http.StatusNotModified:
		if !haveStored {
			return Result{}, &UpstreamError{URL: url, Status: resp.StatusCode, Err: errors.New("not modified without a cached copy")}
		}
		if err := f.store.Touch(ctx, url, now); err != nil {
			return Result{}, fmt.Errorf("origin cache touch: %w", err)
		}
		stored.LastAccess = now
		return Result{Origin: stored, Changed: false}, nil

	default:
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Result{}, &UpstreamError{URL: url, Status: resp.StatusCode}
	}
}
