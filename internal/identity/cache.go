// Package identity resolves songs to platform track identifiers through
// a two-tier cache, a memory tier in front of a durable mapping store,
// with remote catalog resolution on a full miss.
package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixflow/internal/models"
	"github.com/desertthunder/mixflow/internal/services"
	"github.com/desertthunder/mixflow/internal/shared"
	"github.com/desertthunder/mixflow/internal/telemetry"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// MappingStore is the durable cache tier. Implementations return
// [shared.ErrMappingNotFound] when no row matches.
type MappingStore interface {
	GetBySourceKey(sourceService, sourceKey, targetService string) (*models.PersistedMapping, error)
	Create(mapping *models.PersistedMapping) error
}

// Config tunes the cache tiers and batch resolution.
type Config struct {
	// TTL is how long a memory entry stays valid.
	TTL time.Duration
	// MaxEntries bounds the memory tier, the oldest insertion is
	// evicted when the bound is exceeded.
	MaxEntries int
	// Concurrency caps parallel catalog lookups during a batch.
	Concurrency int
	// RatePerSecond throttles catalog lookups across all callers.
	RatePerSecond float64
	// SourceService names the platform the source keys belong to.
	SourceService string
}

func (c Config) withDefaults() Config {
	if c.TTL <= 0 {
		c.TTL = 5 * time.Minute
	}
	if c.MaxEntries <= 0 {
		c.MaxEntries = 500
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 10
	}
	if c.RatePerSecond <= 0 {
		c.RatePerSecond = 5
	}
	if c.SourceService == "" {
		c.SourceService = "library"
	}
	return c
}

type memoryEntry struct {
	targetID string
	storedAt time.Time
}

// Cache is the two-tier platform-identity cache.
type Cache struct {
	store    MappingStore
	resolver services.Resolver
	cfg      Config
	logger   *log.Logger
	limiter  *rate.Limiter

	mu      sync.Mutex
	entries map[string]memoryEntry
	// insertion order for eviction, each key appears at most once
	order []string
}

// New builds a Cache. The store may be nil, in which case only the
// memory tier is used.
func New(store MappingStore, resolver services.Resolver, cfg Config, logger *log.Logger) *Cache {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	burst := int(cfg.RatePerSecond)
	if burst < 1 {
		burst = 1
	}
	return &Cache{
		store:    store,
		resolver: resolver,
		cfg:      cfg,
		logger:   logger,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst),
		entries:  make(map[string]memoryEntry),
	}
}

// Lookup resolves one song to its platform identifier, consulting the
// memory tier, then the durable store, then the remote catalog. Hits
// from slower tiers are written through to the faster ones.
func (c *Cache) Lookup(ctx context.Context, title, artist string) (string, error) {
	key := shared.NormalizeTrackKey(title, artist)

	if id, ok := c.fromMemory(key); ok {
		telemetry.CacheHits.WithLabelValues("memory").Inc()
		return id, nil
	}

	if id, ok := c.fromStore(key); ok {
		telemetry.CacheHits.WithLabelValues("durable").Inc()
		c.remember(key, id)
		return id, nil
	}

	telemetry.CacheMisses.Inc()
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	id, err := c.resolver.ResolveTrack(ctx, title, artist)
	if err != nil {
		return "", err
	}

	c.remember(key, id)
	c.persist(key, id)
	return id, nil
}

// BatchLookup resolves many songs at once, deduplicating identical
// normalized keys and bounding concurrency. The result maps song IDs to
// platform identifiers, songs that could not be resolved are absent.
func (c *Cache) BatchLookup(ctx context.Context, songs []models.Song) (map[string]string, error) {
	// Songs sharing a normalized key are resolved once.
	byKey := make(map[string][]models.Song, len(songs))
	keys := make([]string, 0, len(songs))
	for _, song := range songs {
		key := shared.NormalizeTrackKey(song.Title, song.Artist)
		if _, seen := byKey[key]; !seen {
			keys = append(keys, key)
		}
		byKey[key] = append(byKey[key], song)
	}

	var mu sync.Mutex
	results := make(map[string]string, len(songs))

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(c.cfg.Concurrency)
	for _, key := range keys {
		group.Go(func() error {
			first := byKey[key][0]
			id, err := c.Lookup(ctx, first.Title, first.Artist)
			if err != nil {
				if errors.Is(err, shared.ErrTrackNotFound) {
					c.logger.Debug("no platform identity for track", "title", first.Title, "artist", first.Artist)
					return nil
				}
				return err
			}

			mu.Lock()
			for _, song := range byKey[key] {
				results[song.ID] = id
			}
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Size reports how many entries the memory tier holds.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) fromMemory(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if time.Since(entry.storedAt) > c.cfg.TTL {
		return "", false
	}
	return entry.targetID, true
}

// remember stores a key in the memory tier. Existing keys are updated
// in place and keep their eviction position.
func (c *Cache) remember(key, targetID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		c.order = append(c.order, key)
	}
	c.entries[key] = memoryEntry{targetID: targetID, storedAt: time.Now()}

	for len(c.entries) > c.cfg.MaxEntries {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

// fromStore consults the durable tier. A missing mappings table is
// treated as a miss so a fresh database degrades instead of failing.
func (c *Cache) fromStore(key string) (string, bool) {
	if c.store == nil {
		return "", false
	}
	mapping, err := c.store.GetBySourceKey(c.cfg.SourceService, key, c.resolver.Name())
	if err != nil {
		if !errors.Is(err, shared.ErrMappingNotFound) && !shared.IsMissingTableErr(err) {
			c.logger.Warn("durable cache lookup failed", "key", key, "error", err)
		}
		return "", false
	}
	return mapping.TargetID(), true
}

// persist writes a resolved identity through to the durable tier.
// Failures are logged, a broken store never fails a lookup.
func (c *Cache) persist(key, targetID string) {
	if c.store == nil {
		return
	}
	mapping := models.NewPersistedMapping(0, c.cfg.SourceService, key, c.resolver.Name(), targetID)
	if err := c.store.Create(mapping); err != nil && !shared.IsMissingTableErr(err) {
		c.logger.Warn("durable cache write failed", "key", key, "error", err)
	}
}
