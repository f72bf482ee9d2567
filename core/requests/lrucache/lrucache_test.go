// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package lrucache

import (
	"bytes"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.t = f.t.Add(d)
}

func newTestCache(t *testing.T, size int, compress bool) (*Cache, *fakeClock) {
	t.Helper()

	c, err := New(size, time.Minute, compress)
	require.NoError(t, err)

	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c.now = clock.Now

	return c, clock
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		size    int
		ttl     time.Duration
		wantErr error
	}{
		{"valid", 3, time.Second, nil},
		{"zero size", 0, time.Second, ErrInvalidSize},
		{"negative size", -1, time.Second, ErrInvalidSize},
		{"zero ttl", 3, 0, ErrInvalidTTL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			for _, compress := range []bool{false, true} {
				c, err := New(tt.size, tt.ttl, compress)
				if tt.wantErr != nil {
					require.ErrorIs(t, err, tt.wantErr)
					assert.Nil(t, c)

					continue
				}

				require.NoError(t, err)
				assert.Equal(t, 0, c.Len())
			}
		})
	}
}

func TestAddAndGet(t *testing.T) {
	t.Parallel()

	for _, compress := range []bool{false, true} {
		t.Run("compress="+strconv.FormatBool(compress), func(t *testing.T) {
			t.Parallel()

			c, _ := newTestCache(t, 2, compress)

			assert.False(t, c.Add("a", []byte("alpha")))
			assert.False(t, c.Add("b", []byte("beta")))

			got, ok := c.Get("a")
			require.True(t, ok)
			assert.Equal(t, []byte("alpha"), got)

			// "b" is now the least recently used.
			assert.True(t, c.Add("c", []byte("gamma")))

			_, ok = c.Get("b")
			assert.False(t, ok)
			assert.Equal(t, []string{"a", "c"}, c.Keys())
		})
	}
}

func TestUpdateRestartsLifetime(t *testing.T) {
	t.Parallel()

	c, clock := newTestCache(t, 2, false)

	c.Add("k", []byte("v1"))
	clock.Advance(40 * time.Second)
	c.Add("k", []byte("v2"))
	clock.Advance(40 * time.Second)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), got)
	assert.Equal(t, 1, c.Len())
}

func TestExpiry(t *testing.T) {
	t.Parallel()

	c, clock := newTestCache(t, 2, true)

	c.Add("k", []byte("value"))
	clock.Advance(time.Minute)

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "expired entries are collected on access")
}

func TestValuesAreCopied(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t, 1, false)

	in := []byte("abc")
	c.Add("k", in)
	in[0] = 'x'

	out, _ := c.Get("k")
	assert.Equal(t, []byte("abc"), out)

	out[1] = 'y'
	again, _ := c.Get("k")
	assert.Equal(t, []byte("abc"), again)
}

func TestEmptyValue(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t, 1, true)
	c.Add("k", nil)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Empty(t, got)
}

func TestCompressionShrinksRepetitiveValues(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t, 1, true)

	value := bytes.Repeat([]byte("<tr><td>project</td></tr>"), 200)
	c.Add("k", value)

	ent := c.items["k"].Value.(*entry)
	assert.True(t, ent.compressed)
	assert.Less(t, len(ent.value), len(value))

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, value, got)
}

func TestRemoveAndRemoveFunc(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t, 5, false)

	for _, k := range []string{"node1|a", "node2|b", "node1|c"} {
		c.Add(k, []byte(k))
	}

	assert.True(t, c.Remove("node2|b"))
	assert.False(t, c.Remove("node2|b"))

	removed := c.RemoveFunc(func(key string) bool { return strings.HasPrefix(key, "node1|") })
	assert.Equal(t, []string{"node1|a", "node1|c"}, removed)
	assert.Equal(t, 0, c.Len())
}

func TestConcurrentAccess(t *testing.T) {
	t.Parallel()

	c, err := New(50, time.Minute, true)
	require.NoError(t, err)

	var wg sync.WaitGroup

	for g := range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range 200 {
				key := strconv.Itoa((g*200 + i) % 80)
				c.Add(key, []byte(strings.Repeat(key, 20)))

				if got, ok := c.Get(key); ok {
					assert.Equal(t, strings.Repeat(key, 20), string(got))
				}
			}
		}()
	}

	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 50)
}
