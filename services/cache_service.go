package services

import (
	"context"
	"sync"
	"time"

	"github.com/krolow/brasileirao-backend/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// CacheEntry represents a cached championship snapshot with expiration
type CacheEntry struct {
	Data      *models.Championship
	ExpiresAt time.Time
}

// IsExpired checks if the cache entry has expired
func (ce *CacheEntry) IsExpired() bool {
	return !time.Now().Before(ce.ExpiresAt)
}

// ChampionshipCache is the per-serie snapshot store guarding the scraping
// pipeline. Entries age out via the freshness check on read; nothing evicts
// them proactively. A stale entry is simply bypassed and overwritten on the
// next successful scrape. The key space is the two series, so the map never
// grows beyond that in practice.
type ChampionshipCache struct {
	cache map[string]*CacheEntry
	mutex sync.RWMutex
	ttl   time.Duration
}

// NewChampionshipCache creates a cache with the given entry TTL.
func NewChampionshipCache(ttl time.Duration) *ChampionshipCache {
	return &ChampionshipCache{
		cache: make(map[string]*CacheEntry),
		ttl:   ttl,
	}
}

// Get retrieves the snapshot for a serie, fresh entries only.
func (c *ChampionshipCache) Get(serie string) (*models.Championship, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.cache[serie]
	if !exists || entry.IsExpired() {
		return nil, false
	}

	return entry.Data, true
}

// Set stores a snapshot for a serie, stamping it with the cache TTL.
func (c *ChampionshipCache) Set(serie string, data *models.Championship) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache[serie] = &CacheEntry{
		Data:      data,
		ExpiresAt: time.Now().Add(c.ttl),
	}
}

// Size returns the number of entries, fresh or stale.
func (c *ChampionshipCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.cache)
}

// ChampionshipFetcher runs the scraping pipeline for one serie.
type ChampionshipFetcher interface {
	FetchChampionship(ctx context.Context, serie string) (*models.Championship, error)
}

// CachedChampionshipService gates the scraping pipeline behind the cache:
// a fresh entry is returned without any outbound traffic; otherwise exactly
// one pipeline run per serie executes at a time, with concurrent requests for
// the same expired serie sharing that run instead of racing duplicate scrapes,
// and its result is stored before being returned. Failures are propagated
// unchanged and never cached.
type CachedChampionshipService struct {
	fetcher ChampionshipFetcher
	cache   *ChampionshipCache
	group   singleflight.Group
}

// NewCachedChampionshipService creates a new cache-gated championship service
func NewCachedChampionshipService(fetcher ChampionshipFetcher, cache *ChampionshipCache) *CachedChampionshipService {
	return &CachedChampionshipService{
		fetcher: fetcher,
		cache:   cache,
	}
}

// GetChampionship returns the season snapshot for a serie, scraping only
// when the cached entry is stale or absent.
func (s *CachedChampionshipService) GetChampionship(ctx context.Context, serie string) (*models.Championship, error) {
	if championship, ok := s.cache.Get(serie); ok {
		logrus.WithFields(logrus.Fields{
			"component": "CachedChampionshipService",
			"serie":     serie,
		}).Debug("Serving championship from cache")
		return championship, nil
	}

	result, err, shared := s.group.Do(serie, func() (interface{}, error) {
		// A caller queued behind a completed flight re-checks freshness so it
		// reuses the snapshot that flight just stored.
		if championship, ok := s.cache.Get(serie); ok {
			return championship, nil
		}

		championship, err := s.fetcher.FetchChampionship(ctx, serie)
		if err != nil {
			return nil, err
		}

		s.cache.Set(serie, championship)

		return championship, nil
	})
	if err != nil {
		return nil, err
	}

	if shared {
		logrus.WithFields(logrus.Fields{
			"component": "CachedChampionshipService",
			"serie":     serie,
		}).Debug("Shared in-flight championship scrape")
	}

	return result.(*models.Championship), nil
}
