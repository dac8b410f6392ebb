// Package engine fetches web-style resources: it interprets locators,
// reuses transports, frames requests, assembles and decodes responses,
// chases redirects, and serves a time-bounded response cache.
package engine

import (
	"context"
	"fmt"
	"io"
	"maps"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/BrowserOS/engine/internal/engine/cache"
	"github.com/GriffinCanCode/BrowserOS/engine/internal/engine/decode"
	"github.com/GriffinCanCode/BrowserOS/engine/internal/engine/locator"
	"github.com/GriffinCanCode/BrowserOS/engine/internal/engine/pool"
	"github.com/GriffinCanCode/BrowserOS/engine/internal/engine/wire"
	"github.com/GriffinCanCode/BrowserOS/engine/internal/infrastructure/config"
	"github.com/GriffinCanCode/BrowserOS/engine/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/BrowserOS/engine/internal/logging"
)

// Result is one fetched resource, fully decoded.
type Result struct {
	Body      string
	Locator   locator.Locator
	Status    int
	Headers   map[string]string
	FromCache bool
}

// Engine coordinates the fetch pipeline. Pool and cache state is owned
// here and accessed under per-authority serialization.
type Engine struct {
	cfg     config.FetchConfig
	pool    *pool.Pool
	cache   *cache.Cache
	limiter *rate.Limiter
	log     *logging.Logger
	metrics *monitoring.Metrics

	stopSweep func()
}

// Option tweaks engine construction.
type Option func(*Engine)

// WithDial overrides the transport dialer. Used in tests.
func WithDial(dial pool.DialFunc) Option {
	return func(e *Engine) {
		e.pool = pool.New(pool.Config{ConnectTimeout: e.cfg.ConnectTimeout, Dial: dial}, e.log)
	}
}

// WithMetrics attaches a metrics collector.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New builds an engine from configuration.
func New(cfg config.FetchConfig, sweepInterval time.Duration, log *logging.Logger, opts ...Option) *Engine {
	if log == nil {
		log = logging.NewNop()
	}
	log = log.Component("engine")

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	e := &Engine{
		cfg:     cfg,
		pool:    pool.New(pool.Config{ConnectTimeout: cfg.ConnectTimeout}, log),
		cache:   cache.New(),
		limiter: limiter,
		log:     log,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.stopSweep = e.cache.StartSweeper(sweepInterval)
	return e
}

// Close stops the cache sweeper and shuts pooled transports.
func (e *Engine) Close() {
	if e.stopSweep != nil {
		e.stopSweep()
	}
	e.pool.Close()
}

// Cache exposes the response cache for inspection and clearing.
func (e *Engine) Cache() *cache.Cache { return e.cache }

// Fetch loads one resource. The URL is interpreted fail-soft: malformed
// input falls back to a fixed resource. All other failures are hard and
// return no partial result.
func (e *Engine) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	loc := locator.Parse(rawURL, e.cfg.FallbackHost)
	start := time.Now()

	res, err := e.follow(ctx, loc)

	outcome := "ok"
	size := 0
	if err != nil {
		outcome = "error"
	} else {
		size = len(res.Body)
		if res.FromCache {
			outcome = "cached"
		}
	}
	if e.metrics != nil {
		e.metrics.RecordFetch(string(loc.Scheme), outcome, time.Since(start), size)
	}

	if err != nil {
		e.log.Warn("fetch failed",
			zap.String("url", rawURL),
			zap.Error(err))
		return nil, err
	}
	e.log.Info("fetch complete",
		zap.String("url", rawURL),
		zap.Int("status", res.Status),
		zap.Int("body_bytes", size),
		zap.Bool("from_cache", res.FromCache))
	return res, nil
}

// follow runs the redirect loop: an explicit iteration with a hop
// counter instead of recursion, so the cap cannot grow the stack.
func (e *Engine) follow(ctx context.Context, loc locator.Locator) (*Result, error) {
	viewSource := loc.ViewSource
	redirects := 0

	for {
		loc.ViewSource = viewSource

		switch loc.Scheme {
		case locator.SchemeData:
			return fetchData(loc)
		case locator.SchemeFile:
			return fetchFile(loc)
		}

		res, location, err := e.exchange(ctx, loc)
		if err != nil {
			return nil, err
		}
		if location == "" {
			return res, nil
		}

		redirects++
		if redirects > e.cfg.MaxRedirects {
			return nil, fmt.Errorf("%w: exceeded %d hops", ErrTooManyRedirects, e.cfg.MaxRedirects)
		}
		if e.metrics != nil {
			e.metrics.RedirectsFollowed.Inc()
		}

		next := resolveRedirect(loc, location)
		e.log.Debug("following redirect",
			zap.String("from", loc.String()),
			zap.String("to", next),
			zap.Int("hop", redirects))
		loc = locator.Parse(next, e.cfg.FallbackHost)
	}
}

// exchange performs one network round trip, or serves the authority's
// cached response without touching the network. A non-empty location
// return means the caller must follow a redirect.
func (e *Engine) exchange(ctx context.Context, loc locator.Locator) (*Result, string, error) {
	authority := loc.Authority()

	if resp, ok := e.cache.Get(authority); ok {
		if e.metrics != nil {
			e.metrics.RecordCacheHit()
		}
		return &Result{
			Body:      string(resp.Body),
			Locator:   loc,
			Status:    resp.Status,
			Headers:   maps.Clone(resp.Headers),
			FromCache: true,
		}, "", nil
	}
	if e.metrics != nil {
		e.metrics.RecordCacheMiss()
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrConnect, err)
	}

	conn, reused, err := e.pool.Acquire(ctx, loc)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrConnect, err)
	}
	if e.metrics != nil {
		if reused {
			e.metrics.ConnectionsReused.Inc()
		} else {
			e.metrics.ConnectionsOpened.Inc()
		}
	}

	resp, err := e.roundTrip(ctx, conn, loc)
	if err != nil {
		e.pool.Discard(authority, conn)
		return nil, "", err
	}
	e.pool.Release(authority, conn, resp.KeepAlive())

	body, err := decodeBody(resp)
	if err != nil {
		return nil, "", err
	}

	if resp.IsRedirect() {
		if location, ok := resp.Header("location"); ok {
			return nil, location, nil
		}
	}

	e.store(authority, resp, body)

	return &Result{
		Body:    body,
		Locator: loc,
		Status:  resp.Status,
		Headers: resp.Headers,
	}, "", nil
}

// roundTrip writes the framed request and reads until the response is
// fully assembled.
func (e *Engine) roundTrip(ctx context.Context, conn net.Conn, loc locator.Locator) (*wire.Response, error) {
	req := wire.NewRequest(loc.Host, loc.Path, e.cfg.UserAgent)
	if e.cfg.WriteTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(e.cfg.WriteTimeout))
	}
	if _, err := conn.Write(req.Bytes()); err != nil {
		return nil, fmt.Errorf("%w: write request: %v", ErrConnect, err)
	}

	asm := wire.NewAssembler()
	buf := make([]byte, 4096)
	for {
		if e.cfg.ReadTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(e.cfg.ReadTimeout))
		}
		n, err := conn.Read(buf)
		if n > 0 {
			asm.Feed(buf[:n])
		}
		if asm.State() == wire.StateComplete || asm.State() == wire.StateFailed {
			break
		}
		if err == io.EOF {
			asm.FinishEOF()
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read response: %v", ErrConnect, err)
		}
	}

	resp, err := asm.Response()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return resp, nil
}

// decodeBody resolves transfer and content encodings into text.
func decodeBody(resp *wire.Response) (string, error) {
	raw := resp.Body

	if resp.Chunked() {
		out, err := decode.Chunked(raw)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrParse, err)
		}
		raw = out
	}

	if resp.Gzipped() {
		out, err := decode.Gzip(raw)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrDecode, err)
		}
		raw = out
	}

	// Bytes are taken as UTF-8 text; there is no charset negotiation.
	return string(raw), nil
}

// store writes a cacheable response through to the authority slot with
// its body already decoded.
// Header maps are cloned both ways so a caller mutating Result.Headers
// never edits the cached entry.
func (e *Engine) store(authority string, resp *wire.Response, body string) {
	stored := *resp
	stored.Body = []byte(body)
	stored.Headers = maps.Clone(resp.Headers)
	if e.cache.Put(authority, &stored) && e.metrics != nil {
		e.metrics.CacheEntries.Set(float64(e.cache.Len()))
	}
}

// fetchData resolves a data locator: the payload splits at its first
// comma into media-type metadata and a percent-encoded body.
func fetchData(loc locator.Locator) (*Result, error) {
	mediaType, payload, found := strings.Cut(loc.Path, ",")
	if !found {
		return nil, fmt.Errorf("%w: data payload missing comma", ErrParse)
	}

	body, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: percent-decode: %v", ErrParse, err)
	}

	headers := map[string]string{}
	if mediaType != "" {
		headers["content-type"] = mediaType
	}
	return &Result{Body: body, Locator: loc, Status: 200, Headers: headers}, nil
}

// fetchFile reads a local file verbatim.
func fetchFile(loc locator.Locator) (*Result, error) {
	b, err := os.ReadFile(loc.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileRead, err)
	}
	return &Result{Body: string(b), Locator: loc, Status: 200, Headers: map[string]string{}}, nil
}

// resolveRedirect turns a location header into the next URL. Relative
// targets resolve against the directory of the current path; absolute
// and root-relative targets are taken as-is.
func resolveRedirect(loc locator.Locator, location string) string {
	if strings.Contains(location, "://") {
		return location
	}

	base := fmt.Sprintf("%s://%s:%d", loc.Scheme, loc.Host, loc.Port)
	if strings.HasPrefix(location, "/") {
		return base + location
	}

	dir := loc.Path
	if i := strings.LastIndex(dir, "/"); i >= 0 {
		dir = dir[:i+1]
	}
	return base + dir + location
}
