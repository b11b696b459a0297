package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/adverity-fetchbot/internal/testutil"
)

func TestClaimStore_ClaimOnce(t *testing.T) {
	client, _ := testutil.SetupTestRedis(t)
	store, err := NewClaimStore(ClaimStoreOptions{Client: client})
	require.NoError(t, err)
	ctx := context.Background()

	ok, err := store.Claim(ctx, "J123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Claim(ctx, "J123")
	require.NoError(t, err)
	assert.False(t, ok, "second claim must lose")

	ok, err = store.Claim(ctx, "J124")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClaimStore_ReleaseAllowsRetry(t *testing.T) {
	client, _ := testutil.SetupTestRedis(t)
	store, err := NewClaimStore(ClaimStoreOptions{Client: client, Prefix: "test:"})
	require.NoError(t, err)
	ctx := context.Background()

	ok, err := store.Claim(ctx, "J1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), client.Exists(ctx, "test:J1").Val())

	require.NoError(t, store.Release(ctx, "J1"))
	require.NoError(t, store.Release(ctx, "J1"))

	ok, err = store.Claim(ctx, "J1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClaimStore_TTL(t *testing.T) {
	client, srv := testutil.SetupTestRedis(t)
	store, err := NewClaimStore(ClaimStoreOptions{Client: client, TTL: time.Minute})
	require.NoError(t, err)
	ctx := context.Background()

	ok, err := store.Claim(ctx, "J1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.Minute, srv.TTL(defaultClaimPrefix+"J1"))

	srv.FastForward(2 * time.Minute)
	ok, err = store.Claim(ctx, "J1")
	require.NoError(t, err)
	assert.True(t, ok, "expired claim can be taken again")
}

func TestClaimStore_Errors(t *testing.T) {
	_, err := NewClaimStore(ClaimStoreOptions{})
	require.Error(t, err)

	client, srv := testutil.SetupTestRedis(t)
	store, err := NewClaimStore(ClaimStoreOptions{Client: client})
	require.NoError(t, err)

	_, err = store.Claim(context.Background(), " ")
	require.Error(t, err)

	srv.Close()
	_, err = store.Claim(context.Background(), "J1")
	require.Error(t, err)
}
