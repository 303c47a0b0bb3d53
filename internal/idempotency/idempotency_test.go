package idempotency

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type guard interface {
	Reserve(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func exerciseGuard(t *testing.T, g guard) {
	ctx := context.Background()
	key := "acc-1:" + uuid.NewString()

	ok, err := g.Reserve(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.Reserve(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "second reserve of the same key must fail")

	require.NoError(t, g.Release(ctx, key))

	ok, err = g.Reserve(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok, "released key can be reserved again")

	// solo uno de N intentos concurrentes gana
	concurrentKey := "acc-2:" + uuid.NewString()
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, err := g.Reserve(ctx, concurrentKey); err == nil && ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestLocalGuard(t *testing.T) {
	exerciseGuard(t, NewLocalGuard(time.Hour))
}

func TestLocalGuard_Expiry(t *testing.T) {
	g := NewLocalGuard(time.Minute)
	now := time.Now()
	g.now = func() time.Time { return now }

	ok, _ := g.Reserve(context.Background(), "k")
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	ok, _ = g.Reserve(context.Background(), "k")
	assert.True(t, ok, "expired key is reservable")
}

func TestRedisGuard(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	exerciseGuard(t, NewRedisGuard(client))
}
