package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/femto/pkg/adapters/redis"
	"github.com/aretw0/femto/pkg/domain"
	"github.com/aretw0/femto/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := setup(t)
	ports.RunProgramStoreContract(t, redis.NewFromClient(client))
}

func TestRedisLocker_Contract(t *testing.T) {
	_, client := setup(t)
	ports.RunLockerContract(t, redis.NewLocker(client, "test:"))
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := setup(t)
	store := redis.NewFromClient(client, redis.WithPrefix("lab:"))

	require.NoError(t, store.Save(context.Background(), &domain.Program{ID: "p1", Text: "; x\n"}))
	assert.True(t, mr.Exists("lab:p1"))
	assert.True(t, mr.Exists("lab:index"))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := setup(t)
	store := redis.NewFromClient(client, redis.WithTTL(time.Second))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.Program{ID: "short-lived"}))
	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"short-lived"}, ids)

	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, "short-lived")
	assert.ErrorIs(t, err, domain.ErrProgramNotFound)
}

func TestRedisLocker_UnlockKeepsForeignLock(t *testing.T) {
	mr, client := setup(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "job", time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:lock:job"))

	// The lock expired and someone else took it.
	mr.FastForward(2 * time.Second)
	require.NoError(t, mr.Set("test:lock:job", "other"))

	require.NoError(t, unlock(ctx))
	got, err := mr.Get("test:lock:job")
	require.NoError(t, err)
	assert.Equal(t, "other", got)
}
