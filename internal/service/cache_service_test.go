package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

type failingCacheRepo struct{}

func (failingCacheRepo) Get(context.Context, string, interface{}) error {
	return errors.New("connection refused")
}

func (failingCacheRepo) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New("connection refused")
}

func (failingCacheRepo) DeleteByPattern(context.Context, string) error {
	return errors.New("connection refused")
}

func TestCacheServiceRoundTripAndMetrics(t *testing.T) {
	metrics := NewMetricsService()
	cache := NewCacheService(&stubCacheRepo{}, metrics, 0, nil, true)
	ctx := context.Background()

	var got map[string]int
	assert.False(t, cache.Get(ctx, "dashboard:summary", &got))
	cache.Set(ctx, "dashboard:summary", map[string]int{"total": 4}, 0)
	assert.True(t, cache.Get(ctx, "dashboard:summary", &got))
	assert.Equal(t, 4, got["total"])

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheLookups.WithLabelValues("miss")))
}

func TestCacheServiceSwallowsFailures(t *testing.T) {
	cache := NewCacheService(failingCacheRepo{}, nil, time.Minute, nil, true)
	ctx := context.Background()

	var got map[string]int
	assert.False(t, cache.Get(ctx, "dashboard:summary", &got))
	cache.Set(ctx, "dashboard:summary", map[string]int{}, 0)
	cache.Invalidate(ctx, dashboardCachePattern)
}

func TestCacheServiceDisabled(t *testing.T) {
	var nilCache *CacheService
	assert.False(t, nilCache.Enabled())
	assert.False(t, NewCacheService(nil, nil, 0, nil, true).Enabled())
	assert.False(t, NewCacheService(&stubCacheRepo{}, nil, 0, nil, false).Enabled())
}
