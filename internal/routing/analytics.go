package routing

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	id "sovereign/pkg/domain"
)

// Analytics tracks routing decision volumes per tenant. Recording is
// best-effort and must never fail a routing decision.
type Analytics interface {
	RecordDecision(ctx context.Context, tenantID id.TenantID, jurisdiction id.Jurisdiction, fallback bool)
	Counts(ctx context.Context, tenantID id.TenantID) (map[string]int64, error)
}

func decisionKey(tenantID id.TenantID, jurisdiction id.Jurisdiction, fallback bool) string {
	kind := "primary"
	if fallback {
		kind = "fallback"
	}
	return fmt.Sprintf("routing:decisions:%s:%s:%s", tenantID, jurisdiction, kind)
}

// RedisAnalytics keeps decision counters in Redis so they survive restarts
// and aggregate across instances.
type RedisAnalytics struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedisAnalytics(client *redis.Client, logger *slog.Logger) *RedisAnalytics {
	return &RedisAnalytics{client: client, logger: logger}
}

func (a *RedisAnalytics) RecordDecision(ctx context.Context, tenantID id.TenantID, jurisdiction id.Jurisdiction, fallback bool) {
	key := decisionKey(tenantID, jurisdiction, fallback)
	if err := a.client.Incr(ctx, key).Err(); err != nil {
		a.logger.WarnContext(ctx, "routing analytics increment failed", "key", key, "error", err)
	}
}

func (a *RedisAnalytics) Counts(ctx context.Context, tenantID id.TenantID) (map[string]int64, error) {
	pattern := fmt.Sprintf("routing:decisions:%s:*", tenantID)
	counts := make(map[string]int64)

	iter := a.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		value, err := a.client.Get(ctx, key).Int64()
		if err != nil {
			return nil, fmt.Errorf("read analytics counter %s: %w", key, err)
		}
		counts[key] = value
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan analytics counters: %w", err)
	}
	return counts, nil
}

// InMemoryAnalytics is the test and single-node fallback implementation.
type InMemoryAnalytics struct {
	mu     sync.RWMutex
	counts map[string]int64
}

func NewInMemoryAnalytics() *InMemoryAnalytics {
	return &InMemoryAnalytics{counts: make(map[string]int64)}
}

func (a *InMemoryAnalytics) RecordDecision(_ context.Context, tenantID id.TenantID, jurisdiction id.Jurisdiction, fallback bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counts[decisionKey(tenantID, jurisdiction, fallback)]++
}

func (a *InMemoryAnalytics) Counts(_ context.Context, tenantID id.TenantID) (map[string]int64, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	prefix := fmt.Sprintf("routing:decisions:%s:", tenantID)
	out := make(map[string]int64)
	for key, value := range a.counts {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			out[key] = value
		}
	}
	return out, nil
}
