package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/formula-ihu/quiz-api/internal/pkg/errors"
)

func newTestCacheRepo(t *testing.T) (*CacheRepo, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo, err := NewCacheRepo(client)
	require.NoError(t, err)
	return repo, mr
}

func TestNewCacheRepo_NilClient(t *testing.T) {
	_, err := NewCacheRepo(nil)
	assert.Error(t, err)
}

func TestCacheRepo_GetMissingKey(t *testing.T) {
	repo, _ := newTestCacheRepo(t)

	_, err := repo.Get(context.Background(), "missing")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCacheRepo_SetGetDelete(t *testing.T) {
	repo, mr := newTestCacheRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "k", "v", time.Minute))
	val, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)

	exists, err := repo.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, repo.Delete(ctx, "k"))
	assert.False(t, mr.Exists("k"))
}

func TestCacheRepo_SetNXOnlyFirstWins(t *testing.T) {
	repo, _ := newTestCacheRepo(t)
	ctx := context.Background()

	first, err := repo.SetNX(ctx, "quiz:confirmation:team@example.com", "1", time.Hour)
	require.NoError(t, err)
	second, err := repo.SetNX(ctx, "quiz:confirmation:team@example.com", "1", time.Hour)
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
}

func TestCacheRepo_IncrementSetsWindow(t *testing.T) {
	repo, mr := newTestCacheRepo(t)
	ctx := context.Background()

	count, err := repo.Increment(ctx, "rl:submit:1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, time.Minute, mr.TTL("rl:submit:1.2.3.4"))

	count, err = repo.Increment(ctx, "rl:submit:1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	mr.FastForward(time.Minute)
	assert.False(t, mr.Exists("rl:submit:1.2.3.4"), "window expired")
}
