package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"titlechain/internal/title/models"
)

const cacheKeyPrefix = "title:analysis:"

// CachedStore decorates a Store with a Redis read-through cache. Cache
// failures degrade to the inner store; a stale or missing cache entry is
// never an error.
type CachedStore struct {
	inner  Store
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

type CachedOption func(*CachedStore)

func WithCacheTTL(ttl time.Duration) CachedOption {
	return func(s *CachedStore) {
		s.ttl = ttl
	}
}

func WithCacheLogger(logger *slog.Logger) CachedOption {
	return func(s *CachedStore) {
		s.logger = logger
	}
}

// NewCached wraps inner with a Redis cache.
func NewCached(inner Store, client *redis.Client, opts ...CachedOption) *CachedStore {
	s := &CachedStore{
		inner:  inner,
		client: client,
		ttl:    24 * time.Hour,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *CachedStore) Save(ctx context.Context, result models.AnalysisResult) error {
	if err := s.inner.Save(ctx, result); err != nil {
		return err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal analysis result for cache: %w", err)
	}
	if err := s.client.Set(ctx, cacheKeyPrefix+result.CaseID, payload, s.ttl).Err(); err != nil {
		s.logger.WarnContext(ctx, "analysis cache write failed",
			"case_id", result.CaseID,
			"error", err,
		)
	}
	return nil
}

func (s *CachedStore) FindByCase(ctx context.Context, caseID string) (models.AnalysisResult, error) {
	payload, err := s.client.Get(ctx, cacheKeyPrefix+caseID).Bytes()
	if err == nil {
		var result models.AnalysisResult
		if err := json.Unmarshal(payload, &result); err == nil {
			return result, nil
		}
		// Unreadable cache entry: fall through and repopulate from the store.
	} else if !errors.Is(err, redis.Nil) {
		s.logger.WarnContext(ctx, "analysis cache read failed",
			"case_id", caseID,
			"error", err,
		)
	}

	result, err := s.inner.FindByCase(ctx, caseID)
	if err != nil {
		return models.AnalysisResult{}, err
	}

	if payload, err := json.Marshal(result); err == nil {
		if err := s.client.Set(ctx, cacheKeyPrefix+caseID, payload, s.ttl).Err(); err != nil {
			s.logger.WarnContext(ctx, "analysis cache backfill failed",
				"case_id", caseID,
				"error", err,
			)
		}
	}
	return result, nil
}
