package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const DefaultTTL = 10 * time.Minute

// CacheManager owns the key layout of the quiz builder's cached reads. A nil
// manager or one without a backing service behaves as an always-empty cache.
type CacheManager struct {
	service CacheService
	ttl     time.Duration
	logger  *slog.Logger
}

func NewCacheManager(service CacheService, ttl time.Duration, logger *slog.Logger) *CacheManager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheManager{service: service, ttl: ttl, logger: logger}
}

func QuizQuestionsKey(quizID uint) string {
	return fmt.Sprintf("quiz:%d:questions", quizID)
}

// Load fills dest from key and reports whether it was found. Cache failures
// are logged and treated as misses.
func (m *CacheManager) Load(ctx context.Context, key string, dest interface{}) bool {
	if m == nil || m.service == nil {
		return false
	}
	err := m.service.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, ErrCacheMiss) {
		m.logger.Warn("Cache read failed", "key", key, "error", err)
	}
	return false
}

// Store writes value under key with the manager's TTL
func (m *CacheManager) Store(ctx context.Context, key string, value interface{}) {
	if m == nil || m.service == nil {
		return
	}
	if err := m.service.Set(ctx, key, value, m.ttl); err != nil {
		m.logger.Warn("Cache write failed", "key", key, "error", err)
	}
}

// Invalidate removes the given keys
func (m *CacheManager) Invalidate(ctx context.Context, keys ...string) {
	if m == nil || m.service == nil {
		return
	}
	for _, key := range keys {
		if err := m.service.Delete(ctx, key); err != nil {
			m.logger.Warn("Cache invalidation failed", "key", key, "error", err)
		}
	}
}

// InvalidateAllQuizzes drops every cached question list
func (m *CacheManager) InvalidateAllQuizzes(ctx context.Context) {
	if m == nil || m.service == nil {
		return
	}
	if err := m.service.DeletePattern(ctx, "quiz:*:questions"); err != nil {
		m.logger.Warn("Cache invalidation failed", "pattern", "quiz:*:questions", "error", err)
	}
}
