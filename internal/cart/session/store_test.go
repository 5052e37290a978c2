package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/ridloal/toko-storefront/internal/cart/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, time.Hour), mr
}

func sampleCart() *domain.Cart {
	c := domain.New()
	_ = c.Add(5, 2)
	_ = c.Add(3, 1)
	c.Annotate(3, "gift wrap")
	c.SetNote("antar sebelum jam 5")
	return c
}

func TestStores_RoundTrip(t *testing.T) {
	redisStore, _ := setupRedisStore(t)
	stores := map[string]Store{
		"redis":  redisStore,
		"memory": NewMemoryStore(),
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			empty, err := store.Get(ctx, 1)
			require.NoError(t, err)
			assert.True(t, empty.IsEmpty())

			require.NoError(t, store.Save(ctx, 1, sampleCart()))

			got, err := store.Get(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, []int64{5, 3}, got.Sequence)
			e, ok := got.Get(3)
			require.True(t, ok)
			assert.Equal(t, "gift wrap", e.Note)
			assert.Equal(t, "antar sebelum jam 5", got.Note)

			other, err := store.Get(ctx, 2)
			require.NoError(t, err)
			assert.True(t, other.IsEmpty(), "carts are per user")

			require.NoError(t, store.Clear(ctx, 1))
			cleared, err := store.Get(ctx, 1)
			require.NoError(t, err)
			assert.True(t, cleared.IsEmpty())
			assert.Empty(t, cleared.Note)
		})
	}
}

func TestRedisStore_TTL(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, 9, sampleCart()))
	assert.Equal(t, time.Hour, mr.TTL(cartKey(9)))

	mr.FastForward(2 * time.Hour)
	got, err := store.Get(ctx, 9)
	require.NoError(t, err)
	assert.True(t, got.IsEmpty(), "expired carts come back empty")
}

func TestRedisStore_CorruptPayload(t *testing.T) {
	store, mr := setupRedisStore(t)
	require.NoError(t, mr.Set(cartKey(4), `{"entries":`))

	_, err := store.Get(context.Background(), 4)
	assert.ErrorIs(t, err, ErrCorruptCart)
}

func TestRedisStore_RepairsPayloadWithoutSequence(t *testing.T) {
	store, mr := setupRedisStore(t)
	require.NoError(t, mr.Set(cartKey(6), `{"entries":{"3":{"product_id":3,"quantity":2},"8":{"product_id":8,"quantity":0}}}`))

	got, err := store.Get(context.Background(), 6)

	require.NoError(t, err)
	assert.Equal(t, []int64{3}, got.Sequence)
	assert.Len(t, got.Lines(), 1)
}

func TestMemoryStore_NoAliasing(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	c := sampleCart()
	require.NoError(t, store.Save(ctx, 1, c))

	c.Remove(5)

	got, err := store.Get(ctx, 1)
	require.NoError(t, err)
	_, ok := got.Get(5)
	assert.True(t, ok, "mutating the caller's cart must not change the stored one")
}
