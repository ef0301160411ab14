package cache

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/malbeclabs/scichart/pkg/corpus"
	"github.com/malbeclabs/scichart/pkg/metrics"
)

const (
	defaultTTL = 10 * time.Minute
)

type Config struct {
	Logger  *slog.Logger
	Backend corpus.Backend
	TTL     time.Duration
}

func (c *Config) Validate() error {
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	if c.Backend == nil {
		return errors.New("backend is required")
	}
	if c.TTL == 0 {
		c.TTL = defaultTTL
	}
	return nil
}

// Backend memoizes corpus query results for TTL. Errors are never cached.
type Backend struct {
	cfg Config

	cache   *ttlcache.Cache[string, any]
	cacheMu sync.RWMutex
}

func New(cfg Config) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Backend{
		cfg:   cfg,
		cache: ttlcache.New(ttlcache.WithTTL[string, any](cfg.TTL)),
	}, nil
}

func (b *Backend) PapersByYear(ctx context.Context, q corpus.YearQuery) ([]corpus.YearCount, error) {
	key := q.Key()
	if cached, ok := b.get(key); ok {
		metrics.CacheLookupsTotal.WithLabelValues("papers_by_year", "hit").Inc()
		return slices.Clone(cached.([]corpus.YearCount)), nil
	}
	metrics.CacheLookupsTotal.WithLabelValues("papers_by_year", "miss").Inc()

	rows, err := b.cfg.Backend.PapersByYear(ctx, q)
	if err != nil {
		return nil, err
	}
	b.set(key, slices.Clone(rows))
	return rows, nil
}

func (b *Backend) PapersByField(ctx context.Context, q corpus.FieldQuery) ([]corpus.FieldCount, error) {
	key := q.Key()
	if cached, ok := b.get(key); ok {
		metrics.CacheLookupsTotal.WithLabelValues("papers_by_field", "hit").Inc()
		return slices.Clone(cached.([]corpus.FieldCount)), nil
	}
	metrics.CacheLookupsTotal.WithLabelValues("papers_by_field", "miss").Inc()

	rows, err := b.cfg.Backend.PapersByField(ctx, q)
	if err != nil {
		return nil, err
	}
	b.set(key, slices.Clone(rows))
	return rows, nil
}

func (b *Backend) Ping(ctx context.Context) error {
	return b.cfg.Backend.Ping(ctx)
}

// Purge drops every cached result, e.g. after the derived corpus is rebuilt.
func (b *Backend) Purge() {
	b.cacheMu.Lock()
	defer b.cacheMu.Unlock()
	b.cache.DeleteAll()
	b.cfg.Logger.Debug("cache: purged")
}

func (b *Backend) get(key string) (any, bool) {
	b.cacheMu.RLock()
	defer b.cacheMu.RUnlock()
	item := b.cache.Get(key)
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

func (b *Backend) set(key string, v any) {
	b.cacheMu.Lock()
	defer b.cacheMu.Unlock()
	b.cache.Set(key, v, b.cfg.TTL)
}
