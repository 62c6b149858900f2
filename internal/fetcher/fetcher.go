// Package fetcher discovers and downloads external $ref targets of OpenAPI
// documents. Every URL is fetched at most once; its status moves from idle
// through pending to fetched or failed.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"dario.cat/mergo"
	"github.com/miorlan/openapi-store/internal/domain"
	"github.com/miorlan/openapi-store/internal/infrastructure/loader"
	"github.com/miorlan/openapi-store/internal/normalize"
	"github.com/miorlan/openapi-store/internal/yamlutil"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"gopkg.in/yaml.v3"
)

// Status of a tracked URL
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusFetched Status = "fetched"
	StatusFailed  Status = "failed"
)

// Strategy decides whether discovered references are fetched right away
type Strategy string

const (
	StrategyEager Strategy = "eager"
	StrategyLazy  Strategy = "lazy"
)

const (
	DefaultConcurrencyLimit = 5
	DefaultStrategy         = StrategyEager
	// UnknownURL keys content that was handed in directly
	UnknownURL = "UNKNOWN_URL"
)

// ErrInvalidContent is recorded when fetched bytes are not a document
var ErrInvalidContent = errors.New("Invalid OpenAPI document: Failed to parse the content")

// Reference is a snapshot of one tracked URL
type Reference struct {
	URL     string
	Status  Status
	Errors  []error
	Content map[string]interface{}
}

// Config configures a Fetcher. Zero fields take the defaults.
type Config struct {
	// ConcurrencyLimit is both the batch size and the cap on fetches in flight
	ConcurrencyLimit int
	Strategy         Strategy
	Loader           domain.Loader
	Logger           *slog.Logger
	// Registerer receives the fetch metrics; nil keeps them unregistered
	Registerer prometheus.Registerer
}

func defaultConfig() Config {
	return Config{
		ConcurrencyLimit: DefaultConcurrencyLimit,
		Strategy:         DefaultStrategy,
	}
}

type record struct {
	ref        Reference
	dispatched bool
}

// Fetcher tracks external references. It is safe for concurrent use.
type Fetcher struct {
	cfg     Config
	sem     *semaphore.Weighted
	metrics *metrics

	mu       sync.Mutex
	idle     *sync.Cond
	inflight int
	records  map[string]*record
	order    []string
}

// New creates a Fetcher
func New(cfg Config) (*Fetcher, error) {
	if err := mergo.Merge(&cfg, defaultConfig()); err != nil {
		return nil, fmt.Errorf("failed to apply fetcher defaults: %w", err)
	}
	if cfg.ConcurrencyLimit < 1 {
		return nil, fmt.Errorf("concurrency limit must be positive, got %d", cfg.ConcurrencyLimit)
	}
	switch cfg.Strategy {
	case StrategyEager, StrategyLazy:
	default:
		return nil, fmt.Errorf("unknown strategy %q", cfg.Strategy)
	}
	if cfg.Loader == nil {
		cfg.Loader = loader.NewFileLoader()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	f := &Fetcher{
		cfg:     cfg,
		sem:     semaphore.NewWeighted(int64(cfg.ConcurrencyLimit)),
		metrics: newMetrics(cfg.Registerer),
		records: make(map[string]*record),
	}
	f.idle = sync.NewCond(&f.mu)
	return f, nil
}

// AddReference tracks url and fetches it unless a fetch was already
// dispatched. When this call dispatches, it returns after the fetch settled.
func (f *Fetcher) AddReference(ctx context.Context, url string) {
	if !f.claim(url) {
		return
	}
	f.fetch(ctx, url)
}

// LoadContent registers content under UnknownURL as fetched and discovers
// its external references in the background.
func (f *Fetcher) LoadContent(ctx context.Context, content interface{}) error {
	node, err := normalize.Parse(content)
	if err != nil {
		return fmt.Errorf("failed to parse content: %w", err)
	}
	plain, ok := yamlutil.Plain(node).(map[string]interface{})
	if !ok {
		return ErrInvalidContent
	}

	f.mu.Lock()
	rec := f.track(UnknownURL)
	rec.dispatched = true
	rec.ref.Status = StatusFetched
	rec.ref.Errors = nil
	rec.ref.Content = plain
	f.inflight++
	f.mu.Unlock()

	go func() {
		defer f.done()
		f.discover(context.WithoutCancel(ctx), node, "")
	}()
	return nil
}

// GetReference returns a snapshot of url. ok is false for untracked URLs.
func (f *Fetcher) GetReference(url string) (Reference, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[url]
	if !ok {
		return Reference{}, false
	}
	return rec.snapshot(), true
}

// References returns snapshots of every tracked URL in discovery order
func (f *Fetcher) References() []Reference {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Reference, 0, len(f.order))
	for _, url := range f.order {
		out = append(out, f.records[url].snapshot())
	}
	return out
}

// IsReady blocks until no fetch is queued, pending or still discovering
// references, or until ctx is done.
func (f *Fetcher) IsReady(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		f.mu.Lock()
		f.idle.Broadcast()
		f.mu.Unlock()
	})
	defer stop()

	f.mu.Lock()
	defer f.mu.Unlock()
	for f.inflight > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		f.idle.Wait()
	}
	return nil
}

func (r *record) snapshot() Reference {
	ref := r.ref
	ref.Errors = append([]error(nil), r.ref.Errors...)
	return ref
}

// track registers url as idle. Callers hold f.mu.
func (f *Fetcher) track(url string) *record {
	rec, ok := f.records[url]
	if !ok {
		rec = &record{ref: Reference{URL: url, Status: StatusIdle, Content: map[string]interface{}{}}}
		f.records[url] = rec
		f.order = append(f.order, url)
	}
	return rec
}

// claim marks url as dispatched and counts it in flight. It reports false
// when another caller already dispatched it.
func (f *Fetcher) claim(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := f.track(url)
	if rec.dispatched {
		return false
	}
	rec.dispatched = true
	f.inflight++
	return true
}

func (f *Fetcher) done() {
	f.mu.Lock()
	f.inflight--
	if f.inflight == 0 {
		f.idle.Broadcast()
	}
	f.mu.Unlock()
}

func (f *Fetcher) fetch(ctx context.Context, url string) {
	defer f.done()

	if err := f.sem.Acquire(ctx, 1); err != nil {
		f.fail(url, err)
		return
	}
	// the slot is held until the status leaves pending
	defer f.sem.Release(1)

	f.setPending(url)
	f.metrics.inflight.Inc()
	start := time.Now()
	data, err := f.cfg.Loader.Load(ctx, url)
	f.metrics.inflight.Dec()
	f.metrics.duration.Observe(time.Since(start).Seconds())

	var (
		node  *yaml.Node
		plain map[string]interface{}
	)
	if err == nil {
		node, plain, err = parseContent(data)
	}
	if err != nil {
		f.fail(url, err)
		return
	}

	f.mu.Lock()
	rec := f.records[url]
	rec.ref.Content = plain
	rec.ref.Errors = nil
	rec.ref.Status = StatusFetched
	f.inflight++
	f.mu.Unlock()

	f.metrics.fetches.WithLabelValues(string(StatusFetched)).Inc()
	f.cfg.Logger.Debug("external reference fetched", "url", url)

	go func() {
		defer f.done()
		f.discover(context.WithoutCancel(ctx), node, url)
	}()
}

func (f *Fetcher) setPending(url string) {
	f.mu.Lock()
	f.records[url].ref.Status = StatusPending
	f.mu.Unlock()
}

func (f *Fetcher) fail(url string, err error) {
	f.mu.Lock()
	rec := f.records[url]
	rec.ref.Status = StatusFailed
	rec.ref.Errors = append(rec.ref.Errors, err)
	f.mu.Unlock()

	f.metrics.fetches.WithLabelValues(string(StatusFailed)).Inc()
	f.cfg.Logger.Warn("external reference failed", "url", url, "error", err)
}

// discover schedules the external references of node. Eager fetches them in
// batches of ConcurrencyLimit, each batch settling before the next starts.
func (f *Fetcher) discover(ctx context.Context, node *yaml.Node, origin string) {
	urls := FindExternalReferences(node, origin)
	if len(urls) == 0 {
		return
	}

	f.mu.Lock()
	for _, url := range urls {
		f.track(url)
	}
	f.mu.Unlock()
	if f.cfg.Strategy == StrategyLazy {
		return
	}

	for start := 0; start < len(urls); start += f.cfg.ConcurrencyLimit {
		end := min(start+f.cfg.ConcurrencyLimit, len(urls))
		var g errgroup.Group
		for _, url := range urls[start:end] {
			g.Go(func() error {
				f.AddReference(ctx, url)
				return nil
			})
		}
		_ = g.Wait()
	}
}

func parseContent(data []byte) (*yaml.Node, map[string]interface{}, error) {
	node, err := normalize.Parse(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	plain, ok := yamlutil.Plain(node).(map[string]interface{})
	if !ok || len(plain) == 0 {
		return nil, nil, ErrInvalidContent
	}
	return node, plain, nil
}
