package service

import (
	"context"
	"sync"
	"testing"
	"time"

	infraredis "kindboard-go/internal/infra/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	infraredis.Client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { infraredis.Client = nil })
	return mr
}

func TestClaimJobSecondClaimRejected(t *testing.T) {
	setupTestRedis(t)
	svc := NewRewriteService(nil, nil)
	ctx := context.Background()

	claimed, err := svc.claimJob(ctx, 42)
	require.NoError(t, err)
	assert.True(t, claimed)

	// 名额未释放时重复抢占必须失败
	claimed, err = svc.claimJob(ctx, 42)
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestClaimJobReleasedCanBeReclaimed(t *testing.T) {
	setupTestRedis(t)
	svc := NewRewriteService(nil, nil)
	ctx := context.Background()

	claimed, err := svc.claimJob(ctx, 42)
	require.NoError(t, err)
	require.True(t, claimed)

	svc.releaseJob(ctx, 42)

	claimed, err = svc.claimJob(ctx, 42)
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestClaimJobIsolatedPerUser(t *testing.T) {
	setupTestRedis(t)
	svc := NewRewriteService(nil, nil)
	ctx := context.Background()

	claimed, err := svc.claimJob(ctx, 1)
	require.NoError(t, err)
	require.True(t, claimed)

	// 不同用户互不影响
	claimed, err = svc.claimJob(ctx, 2)
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestClaimJobConcurrentOnlyOneWins(t *testing.T) {
	setupTestRedis(t)
	svc := NewRewriteService(nil, nil)
	ctx := context.Background()

	const attempts = 10
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := svc.claimJob(ctx, 42)
			if err == nil && claimed {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestClaimJobHasExpiry(t *testing.T) {
	mr := setupTestRedis(t)
	svc := NewRewriteService(nil, nil)

	claimed, err := svc.claimJob(context.Background(), 42)
	require.NoError(t, err)
	require.True(t, claimed)

	// worker 崩溃没来得及释放时名额要能自己过期
	assert.Greater(t, mr.TTL("rewrite:claim:42"), time.Duration(0))
}
