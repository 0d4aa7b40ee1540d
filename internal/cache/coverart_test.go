package cache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/daedal00/muse/internal/provider"
	"github.com/daedal00/muse/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *CoverArt {
	t.Helper()
	c, err := New(context.Background(), storage.NewMemoryOpener(), 0)
	require.NoError(t, err)
	return c
}

func TestGetFetchesOnceThenServesFromL1(t *testing.T) {
	c := newTestCache(t)
	var calls int32
	fetch := func(ctx context.Context) (*provider.CoverArt, error) {
		atomic.AddInt32(&calls, 1)
		return &provider.CoverArt{URL: "https://art.example/1.jpg"}, nil
	}

	art1, err := c.Get(context.Background(), "https://art.example/1.jpg", fetch)
	require.NoError(t, err)
	art2, err := c.Get(context.Background(), "https://art.example/1.jpg", fetch)
	require.NoError(t, err)

	assert.Equal(t, art1, art2)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestGetIsContentAddressedAcrossDistinctURLs(t *testing.T) {
	c := newTestCache(t)
	var calls int32
	fetch := func(url string) Fetcher {
		return func(ctx context.Context) (*provider.CoverArt, error) {
			atomic.AddInt32(&calls, 1)
			return &provider.CoverArt{URL: url}, nil
		}
	}

	_, err := c.Get(context.Background(), "https://art.example/a.jpg", fetch("https://art.example/a.jpg"))
	require.NoError(t, err)
	_, err = c.Get(context.Background(), "https://art.example/b.jpg", fetch("https://art.example/b.jpg"))
	require.NoError(t, err)

	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestConcurrentGetsForSameURLCollapseToOneFetch(t *testing.T) {
	c := newTestCache(t)
	var calls int32
	release := make(chan struct{})
	fetch := func(ctx context.Context) (*provider.CoverArt, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return &provider.CoverArt{URL: "https://art.example/slow.jpg"}, nil
	}

	const n = 8
	done := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		go func() {
			_, _ = c.Get(context.Background(), "https://art.example/slow.jpg", fetch)
			done <- struct{}{}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	for i := 0; i < n; i++ {
		<-done
	}

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestFetchErrorIsNotCached(t *testing.T) {
	c := newTestCache(t)
	var calls int32
	fetch := func(ctx context.Context) (*provider.CoverArt, error) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			return nil, assert.AnError
		}
		return &provider.CoverArt{URL: "https://art.example/retry.jpg"}, nil
	}

	_, err := c.Get(context.Background(), "https://art.example/retry.jpg", fetch)
	assert.Error(t, err)

	art, err := c.Get(context.Background(), "https://art.example/retry.jpg", fetch)
	require.NoError(t, err)
	assert.NotNil(t, art)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestL2SurvivesL1Eviction(t *testing.T) {
	c := newTestCache(t)
	fetch := func(ctx context.Context) (*provider.CoverArt, error) {
		return &provider.CoverArt{URL: "https://art.example/evict.jpg"}, nil
	}
	_, err := c.Get(context.Background(), "https://art.example/evict.jpg", fetch)
	require.NoError(t, err)

	c.l1.Purge()

	failFetch := func(ctx context.Context) (*provider.CoverArt, error) {
		t.Fatal("fetch should not be called once L2 has the entry")
		return nil, nil
	}
	art, err := c.Get(context.Background(), "https://art.example/evict.jpg", failFetch)
	require.NoError(t, err)
	assert.NotNil(t, art)
}

func TestInvalidateForcesRefetch(t *testing.T) {
	c := newTestCache(t)
	var calls int32
	fetch := func(ctx context.Context) (*provider.CoverArt, error) {
		atomic.AddInt32(&calls, 1)
		return &provider.CoverArt{URL: "https://art.example/inv.jpg"}, nil
	}

	_, err := c.Get(context.Background(), "https://art.example/inv.jpg", fetch)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(context.Background(), "https://art.example/inv.jpg"))
	_, err = c.Get(context.Background(), "https://art.example/inv.jpg", fetch)
	require.NoError(t, err)

	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestExpiredL2EntryIsRefetched(t *testing.T) {
	c, err := New(context.Background(), storage.NewMemoryOpener(), time.Millisecond)
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour)
	c.nowFunc = func() time.Time { return past }
	var calls int32
	fetch := func(ctx context.Context) (*provider.CoverArt, error) {
		atomic.AddInt32(&calls, 1)
		return &provider.CoverArt{URL: "https://art.example/ttl.jpg"}, nil
	}
	_, err = c.Get(context.Background(), "https://art.example/ttl.jpg", fetch)
	require.NoError(t, err)

	c.l1.Purge()
	c.nowFunc = time.Now

	_, err = c.Get(context.Background(), "https://art.example/ttl.jpg", fetch)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}
