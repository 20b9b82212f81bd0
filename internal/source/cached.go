package source

import (
	"context"
	"time"

	"github.com/wonny/mdhealth/internal/contracts"
	"github.com/wonny/mdhealth/pkg/logger"
	"github.com/wonny/mdhealth/pkg/redis"
)

// CachedSource keeps fetched tables in Redis for a TTL.
// With Redis disabled every call goes straight to the inner source.
type CachedSource struct {
	inner  contracts.DataSource
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCached wraps inner with a table cache
func NewCached(inner contracts.DataSource, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *CachedSource {
	if log == nil {
		log = logger.NewNop()
	}
	return &CachedSource{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: log.WithField("module", "source_cache"),
	}
}

func (s *CachedSource) Name() string { return s.inner.Name() }

// Load serves cache hits and asks the inner source only for the misses.
// Cache errors degrade to a miss.
func (s *CachedSource) Load(ctx context.Context, types []string) (map[string]*contracts.Table, error) {
	out := make(map[string]*contracts.Table, len(types))
	var misses []string

	for _, t := range types {
		var tbl contracts.Table
		found, err := s.cache.Get(ctx, s.key(t), &tbl)
		if err != nil {
			s.logger.WithDataset(t).WithError(err).Warn("Cache read failed")
		}
		if found && err == nil {
			out[t] = &tbl
			continue
		}
		misses = append(misses, t)
	}

	s.logger.WithFields(map[string]interface{}{
		"hits":   len(out),
		"misses": len(misses),
	}).Debug("Source cache lookup")

	if len(misses) == 0 {
		return out, nil
	}

	loaded, err := s.inner.Load(ctx, misses)
	if err != nil {
		return nil, err
	}
	for t, tbl := range loaded {
		out[t] = tbl
		if tbl == nil {
			continue
		}
		if err := s.cache.Set(ctx, s.key(t), tbl, s.ttl); err != nil {
			s.logger.WithDataset(t).WithError(err).Warn("Cache write failed")
		}
	}
	return out, nil
}

// Invalidate drops cached tables so the next load refetches them
func (s *CachedSource) Invalidate(ctx context.Context, types ...string) error {
	for _, t := range types {
		if err := s.cache.Delete(ctx, s.key(t)); err != nil {
			return err
		}
	}
	return nil
}

// SubmitCorrection forwards to the inner source and drops the stale cached table
func (s *CachedSource) SubmitCorrection(ctx context.Context, dataType, recordID string, fields map[string]any) error {
	if err := SubmitCorrection(ctx, s.inner, dataType, recordID, fields); err != nil {
		return err
	}
	if err := s.Invalidate(ctx, dataType); err != nil {
		s.logger.WithDataset(dataType).WithError(err).Warn("Cache invalidation failed")
	}
	return nil
}

func (s *CachedSource) key(dataType string) string {
	return redis.DatasetKey(s.inner.Name(), dataType)
}
