package distlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestRedisLockExclusive(t *testing.T) {
	ctx := context.Background()
	client, _ := newRedis(t)

	first := NewRedisLock(client, ImportKey("s1"), time.Minute)
	second := NewRedisLock(client, ImportKey("s1"), time.Minute)

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "second owner must not acquire a held lock")

	// Releasing a lock we do not own is a no-op.
	require.NoError(t, second.Release(ctx))
	ok, _ = second.Acquire(ctx)
	assert.False(t, ok)

	require.NoError(t, first.Release(ctx))
	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockExpires(t *testing.T) {
	ctx := context.Background()
	client, mr := newRedis(t)

	l := NewRedisLock(client, ImportKey("s2"), time.Second)
	ok, err := l.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)
	assert.Error(t, l.Extend(ctx, time.Minute), "expired lock cannot be extended")

	other := NewRedisLock(client, ImportKey("s2"), time.Second)
	ok, err = other.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewLockPrefersRedis(t *testing.T) {
	client, _ := newRedis(t)
	_, isRedis := NewLock(client, nil, "k", time.Second).(*RedisLock)
	assert.True(t, isRedis)
	_, isPG := NewLock(nil, nil, "k", time.Second).(*PGAdvisoryLock)
	assert.True(t, isPG)
}
