package reportcache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusevents/internal/queue"
)

type row struct {
	Title string `json:"title"`
	Count int    `json:"count"`
}

func newTestCache(t *testing.T, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, ttl), mr
}

func TestKeyLayout(t *testing.T) {
	k := Key("", "popularity", "college=")
	assert.True(t, strings.HasPrefix(k, "reports:all:popularity:"))
	assert.NotEqual(t, k, Key("", "popularity", "college=x"))
	assert.True(t, strings.HasPrefix(Key("c1", "participation", ""), "reports:c1:participation:"))
}

func TestLoadMissThenHit(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()
	calls := 0
	fill := func(context.Context) ([]row, error) {
		calls++
		return []row{{Title: "Hackathon", Count: calls}}, nil
	}

	key := Key("", "popularity", "")
	got, hit, err := Load(ctx, c, key, fill)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, got[0].Count)
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key))

	got, hit, err = Load(ctx, c, key, fill)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, got[0].Count)
	assert.Equal(t, 1, calls)
}

func TestLoadDoesNotCacheErrors(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	boom := errors.New("boom")
	_, _, err := Load(context.Background(), c, Key("", "x", ""), func(context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, mr.Keys())
}

func TestLoadPassThroughWhenDisabled(t *testing.T) {
	c, mr := newTestCache(t, 0)
	for i := 0; i < 2; i++ {
		_, hit, err := Load(context.Background(), c, Key("", "x", ""), func(context.Context) (int, error) { return 1, nil })
		require.NoError(t, err)
		assert.False(t, hit)
	}
	assert.Empty(t, mr.Keys())

	var nilCache *Cache
	v, hit, err := Load(context.Background(), nilCache, "k", func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 7, v)
}

func TestLoadFallsBackWhenRedisDown(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	mr.Close()
	v, hit, err := Load(context.Background(), c, "reports:all:x:1", func(context.Context) (int, error) { return 3, nil })
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 3, v)
}

func TestPurgeAllLeavesOtherKeys(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	require.NoError(t, mr.Set("reports:all:popularity:a", "[]"))
	require.NoError(t, mr.Set("reports:c1:participation:b", "[]"))
	require.NoError(t, mr.Set("campus:other", "keep"))

	n, err := c.PurgeAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"campus:other"}, mr.Keys())
}

func TestInvalidatePurgesPerMessage(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	require.NoError(t, mr.Set("reports:all:popularity:a", "[]"))

	msgs := make(chan queue.Message, 1)
	seen := make(chan queue.Kind, 1)
	done := make(chan struct{})
	go func() {
		c.Invalidate(context.Background(), msgs, func(m queue.Message, err error) {
			assert.NoError(t, err)
			seen <- m.Kind
		})
		close(done)
	}()

	msgs <- queue.Message{Kind: queue.KindFeedbackSubmitted}
	select {
	case k := <-seen:
		assert.Equal(t, queue.KindFeedbackSubmitted, k)
	case <-time.After(2 * time.Second):
		t.Fatal("message not observed")
	}
	assert.False(t, mr.Exists("reports:all:popularity:a"))

	close(msgs)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("invalidate loop did not stop")
	}
}
