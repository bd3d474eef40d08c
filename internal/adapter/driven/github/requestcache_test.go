package github_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ghadapter "github.com/ericfisherdev/tomeboard/internal/adapter/driven/github"
)

func TestRequestCache_ServesFromCacheWithinTTL(t *testing.T) {
	current := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	cache := ghadapter.NewRequestCache(time.Minute, func() time.Time { return current })

	calls := 0
	fetch := func() ([]byte, error) {
		calls++
		return []byte("payload"), nil
	}

	for i := 0; i < 5; i++ {
		body, err := cache.Do("https://example.com/a", fetch)
		require.NoError(t, err)
		assert.Equal(t, []byte("payload"), body)
	}

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, cache.Len())
}

func TestRequestCache_ExpiresAfterTTL(t *testing.T) {
	current := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	cache := ghadapter.NewRequestCache(time.Minute, func() time.Time { return current })

	calls := 0
	fetch := func() ([]byte, error) {
		calls++
		return []byte("payload"), nil
	}

	_, err := cache.Do("https://example.com/a", fetch)
	require.NoError(t, err)

	current = current.Add(61 * time.Second)

	_, err = cache.Do("https://example.com/a", fetch)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestRequestCache_FailuresAreNotCached(t *testing.T) {
	cache := ghadapter.NewRequestCache(time.Minute, nil)

	calls := 0
	_, err := cache.Do("https://example.com/a", func() ([]byte, error) {
		calls++
		return nil, errors.New("network down")
	})
	require.Error(t, err)

	body, err := cache.Do("https://example.com/a", func() ([]byte, error) {
		calls++
		return []byte("recovered"), nil
	})
	require.NoError(t, err)

	assert.Equal(t, []byte("recovered"), body)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, cache.Len())
}

func TestRequestCache_DistinctURLsDoNotShareEntries(t *testing.T) {
	cache := ghadapter.NewRequestCache(time.Minute, nil)

	a, err := cache.Do("https://example.com/a", func() ([]byte, error) {
		return []byte("a"), nil
	})
	require.NoError(t, err)

	b, err := cache.Do("https://example.com/b", func() ([]byte, error) {
		return []byte("b"), nil
	})
	require.NoError(t, err)

	assert.Equal(t, []byte("a"), a)
	assert.Equal(t, []byte("b"), b)
	assert.Equal(t, 2, cache.Len())
}

func TestRequestCache_ConcurrentCallersShareOneFetch(t *testing.T) {
	cache := ghadapter.NewRequestCache(time.Minute, nil)

	var calls atomic.Int64
	release := make(chan struct{})
	fetch := func() ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte("payload"), nil
	}

	const workers = 8
	var wg sync.WaitGroup
	results := make([][]byte, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.Do("https://example.com/a", fetch)
		}(i)
	}

	// Give the goroutines time to pile up behind the in-flight fetch.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, []byte("payload"), results[i])
	}

	assert.LessOrEqual(t, calls.Load(), int64(2),
		"concurrent callers for one URL collapse onto at most a couple of fetches")
}
