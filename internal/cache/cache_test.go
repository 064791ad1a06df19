package cache

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func BenchmarkCache(b *testing.B) {
	c := NewWithTTL[*time.Time](time.Millisecond*100, func(context.Context, string) (*time.Time, error) {
		t := time.Now()
		return &t, nil
	})

	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for i := 0; i < b.N; i++ {
		_, _ = c.Load(context.Background(), strconv.Itoa(r.Intn(50)))
	}
}

func TestCache(t *testing.T) {
	ttl := time.Millisecond * 10
	c := NewWithTTL[*time.Time](ttl, func(context.Context, string) (*time.Time, error) {
		t := time.Now()
		return &t, nil
	})

	wg := new(sync.WaitGroup)

	go func() {
		c.Clean()
	}()

	for n := 0; n < 20; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			r := rand.New(rand.NewSource(time.Now().UnixNano()))

			for i := 0; i < 10000; i++ {
				res, err := c.Load(context.Background(), strconv.Itoa(r.Intn(1000)))

				assert.NoError(t, err)
				assert.NotNil(t, res)
				assert.Less(t, time.Since(*res), ttl*time.Duration(2))
			}
		}()
	}

	wg.Wait()
}

func TestErrorsNotCached(t *testing.T) {
	var calls atomic.Int32

	fail := true

	c := NewWithTTL[string](time.Minute, func(_ context.Context, key string) (string, error) {
		calls.Add(1)

		if fail {
			return "", errors.New("boom")
		}

		return "v-" + key, nil
	})

	_, err := c.Load(context.Background(), "a")
	require.Error(t, err)

	fail = false

	v, err := c.Load(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "v-a", v)

	v, err = c.Load(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "v-a", v)
	assert.EqualValues(t, 2, calls.Load())
}
