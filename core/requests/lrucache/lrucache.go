// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package lrucache provides a thread-safe, fixed-capacity least-recently-used (LRU)
cache of byte slices with a per-entry time to live.

When created with compression enabled via [New], values are stored zstd-compressed
whenever that saves space, and are transparently decompressed by [Cache.Get].
*/
package lrucache

import (
	"container/list"
	"errors"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

var (
	ErrInvalidSize = errors.New("must provide a positive size")
	ErrInvalidTTL  = errors.New("must provide a positive time to live")
)

// Cache is a fixed-capacity, least-recently-used cache that is safe for concurrent use.
// Instances must be constructed with [New]; the zero value is not ready for use.
type Cache struct {
	size      int                      // Maximum capacity of the cache (number of entries)
	ttl       time.Duration            // Lifetime of an entry from its last Add
	evictList *list.List               // Front is the most recently used entry
	items     map[string]*list.Element // Maps keys to their linked-list elements
	lock      sync.Mutex
	zstdEnc   *zstd.Encoder // nil when compression is disabled
	zstdDec   *zstd.Decoder

	// now is replaced in tests.
	now func() time.Time
}

type entry struct {
	key        string
	value      []byte
	compressed bool
	expiresAt  time.Time
}

// New creates a cache holding at most size entries, each living for ttl.
//
// If compress is true, values are stored compressed when this reduces space.
func New(size int, ttl time.Duration, compress bool) (*Cache, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}

	c := &Cache{
		size:      size,
		ttl:       ttl,
		evictList: list.New(),
		items:     make(map[string]*list.Element),
		now:       time.Now,
	}

	if compress {
		// A nil writer/reader lets us use EncodeAll/DecodeAll without streams.
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}

		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
		if err != nil {
			return nil, err
		}

		c.zstdEnc = enc
		c.zstdDec = dec
	}

	return c, nil
}

// Add stores a copy of value under key, replacing any previous value and
// restarting its time to live.
//
// If the cache is at capacity, the least recently used entry is evicted.
// Add reports whether an eviction occurred.
func (c *Cache) Add(key string, value []byte) bool {
	// Compress before acquiring the lock; EncodeAll is safe for concurrent use.
	stored, compressed := c.prepare(value)

	c.lock.Lock()
	defer c.lock.Unlock()

	expiresAt := c.now().Add(c.ttl)

	if el, ok := c.items[key]; ok {
		c.evictList.MoveToFront(el)

		ent := el.Value.(*entry)
		ent.value, ent.compressed, ent.expiresAt = stored, compressed, expiresAt

		return false
	}

	c.items[key] = c.evictList.PushFront(&entry{
		key:        key,
		value:      stored,
		compressed: compressed,
		expiresAt:  expiresAt,
	})

	evicted := c.evictList.Len() > c.size
	if evicted {
		c.removeElement(c.evictList.Back())
	}

	return evicted
}

// Get returns a copy of the value for key and marks it as most recently used.
//
// Expired entries are removed and reported as missing.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.lock.Lock()

	el, ok := c.items[key]
	if !ok {
		c.lock.Unlock()

		return nil, false
	}

	ent := el.Value.(*entry)
	if !c.now().Before(ent.expiresAt) {
		c.removeElement(el)
		c.lock.Unlock()

		return nil, false
	}

	c.evictList.MoveToFront(el)

	stored, compressed := ent.value, ent.compressed

	c.lock.Unlock()

	return c.restore(stored, compressed)
}

// Remove deletes the entry for key, reporting whether it was present.
func (c *Cache) Remove(key string) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	if el, ok := c.items[key]; ok {
		c.removeElement(el)

		return true
	}

	return false
}

// RemoveFunc deletes every entry whose key satisfies match and returns the
// removed keys, from the oldest to the newest.
func (c *Cache) RemoveFunc(match func(key string) bool) []string {
	c.lock.Lock()
	defer c.lock.Unlock()

	var removed []string

	for el := c.evictList.Back(); el != nil; {
		prev := el.Prev()

		if key := el.Value.(*entry).key; match(key) {
			c.removeElement(el)

			removed = append(removed, key)
		}

		el = prev
	}

	return removed
}

// Keys returns all keys in the cache, from the oldest to the newest.
// Expired entries not yet collected are included.
func (c *Cache) Keys() []string {
	c.lock.Lock()
	defer c.lock.Unlock()

	keys := make([]string, 0, len(c.items))

	for el := c.evictList.Back(); el != nil; el = el.Prev() {
		keys = append(keys, el.Value.(*entry).key)
	}

	return keys
}

// Len returns the current number of entries in the cache.
func (c *Cache) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.evictList.Len()
}

func (c *Cache) removeElement(el *list.Element) {
	c.evictList.Remove(el)
	delete(c.items, el.Value.(*entry).key)
}

// prepare returns the form of value to store. Compressed output is kept only
// if it is smaller; otherwise a copy is stored so callers cannot mutate the cache.
func (c *Cache) prepare(value []byte) ([]byte, bool) {
	if len(value) == 0 {
		return nil, false
	}

	if c.zstdEnc != nil {
		if compressed := c.zstdEnc.EncodeAll(value, nil); len(compressed) < len(value) {
			return compressed, true
		}
	}

	copied := make([]byte, len(value))
	copy(copied, value)

	return copied, false
}

// restore undoes prepare. It is called without holding the lock.
// A value that fails to decompress is reported as missing.
func (c *Cache) restore(stored []byte, compressed bool) ([]byte, bool) {
	if !compressed {
		if stored == nil {
			return []byte{}, true
		}

		copied := make([]byte, len(stored))
		copy(copied, stored)

		return copied, true
	}

	decoded, err := c.zstdDec.DecodeAll(stored, nil)
	if err != nil {
		return nil, false
	}

	return decoded, true
}
