package health

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinger struct{ err error }

func (p pinger) Ping() error { return p.err }

type stats struct{}

func (stats) Stats() (int64, int64, int64) { return 7, 1, 0 }

func TestCollectHealth_WithNilRedis(t *testing.T) {
	result := CollectHealth(context.Background(), nil, nil)
	assert.Equal(t, "issue", result.Status)
	assert.Equal(t, "disconnected", result.Dependencies["database"].Status)
	assert.Equal(t, "disconnected", result.Dependencies["redis"].Status)
	assert.Equal(t, 0, result.Traffic.TotalRequests)
	assert.Nil(t, result.Events)
}

func TestCollectHealth_WithMiniredis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	ctx := context.Background()

	result := CollectHealth(ctx, rdb, pinger{})
	assert.Equal(t, "ok", result.Status)
	assert.Equal(t, "connected", result.Dependencies["redis"].Status)
	assert.Equal(t, "100", result.Traffic.SuccessRate)

	require.NoError(t, rdb.Set(ctx, "health:global:req_total", "10", 0).Err())
	require.NoError(t, rdb.Set(ctx, "health:global:req_errors", "2", 0).Err())
	require.NoError(t, rdb.Set(ctx, "health:global:res_time_total", "150.5", 0).Err())
	require.NoError(t, rdb.Set(ctx, "health:global:res_count", "10", 0).Err())
	require.NoError(t, rdb.Set(ctx, "health:global:start_time", "1000000", 0).Err())

	result = CollectHealth(ctx, rdb, pinger{})
	assert.Equal(t, 10, result.Traffic.TotalRequests)
	assert.Equal(t, 2, result.Traffic.FailedCount)
	assert.Equal(t, 8, result.Traffic.SuccessCount)
	assert.Equal(t, "80.0", result.Traffic.SuccessRate)
	assert.Equal(t, "15.05", result.Traffic.AvgResponseTime)
}

func TestCollectHealth_OptionalChecks(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	result := CollectHealth(context.Background(), rdb, pinger{}, Options{
		Checks: []Check{
			{Name: "storage", Ping: func(context.Context) error { return nil }},
			{Name: "nats", Ping: func(context.Context) error { return errors.New("no servers") }},
		},
		Events: stats{},
	})
	assert.Equal(t, "degraded", result.Status)
	assert.Equal(t, "connected", result.Dependencies["storage"].Status)
	assert.Equal(t, "error", result.Dependencies["nats"].Status)
	assert.Equal(t, "no servers", result.Dependencies["nats"].Error)
	require.NotNil(t, result.Events)
	assert.Equal(t, int64(7), result.Events.Delivered)

	result = CollectHealth(context.Background(), rdb, pinger{err: errors.New("down")})
	assert.Equal(t, "issue", result.Status)
	assert.Equal(t, "error", result.Dependencies["database"].Status)
}

func TestRenderDashboardHTML(t *testing.T) {
	result := CollectHealth(context.Background(), nil, nil, Options{Events: stats{}})
	result.Traffic.LastRequest = map[string]interface{}{"method": "GET", "path": "/api/v1/listings?q=<b>", "ip": "1.2.3.4"}

	html, err := RenderDashboardHTML(result)
	require.NoError(t, err)
	assert.Contains(t, html, "System Issues Detected")
	assert.Contains(t, html, "Events delivered")
	assert.Contains(t, html, "&lt;b&gt;")
	assert.NotContains(t, html, "<b>")
}
