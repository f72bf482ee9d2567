// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package requests

import (
	"bytes"
	"encoding/gob"
	"hash/fnv"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ligoj/plugin-req-squash/config"
	"github.com/ligoj/plugin-req-squash/core/requests/lrucache"
)

var cache *lrucache.Cache

// cachedItem represents a cached HTTP response's components along with its original URL.
type cachedItem struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	URL        string
}

// cachePolicy defines the caching behavior for a request.
type cachePolicy struct {
	// Whether to store any OK response that we receive.
	shouldStore bool

	// The cached item if available and valid.
	cachedItem *cachedItem
}

// Setup initializes the Squash TM response cache and the outgoing rate limiter
// from config.Global.
//
// If caching is disabled in the configuration, the cache is left uninitialized.
func Setup() error {
	setupLimiter()

	cache = nil

	if !config.Global.Cache.Enabled {
		log.Info().
			Msg("Cache is disabled, skipping cache initialization")

		return nil
	}

	var err error

	cache, err = lrucache.New(config.Global.Cache.Size, config.Global.Cache.TTL, config.Global.Cache.Compress)
	if err != nil {
		return err
	}

	log.Info().
		Int("size", config.Global.Cache.Size).
		Dur("ttl", config.Global.Cache.TTL).
		Bool("compress", config.Global.Cache.Compress).
		Msg("Initialized Squash TM response cache")

	return nil
}

// scopeKey hashes a cache scope. Scopes usually embed credentials, which must
// not appear in cache keys.
func scopeKey(scope string) string {
	hasher := fnv.New64a()

	_, _ = hasher.Write([]byte(scope))

	return strconv.FormatUint(hasher.Sum64(), 16)
}

// generateCacheKey binds a cached response to both the request URL and its scope.
func generateCacheKey(rawURL, scope string) string {
	return scopeKey(scope) + "|" + rawURL
}

// determineCachePolicy determines the caching policy for a GET request.
func determineCachePolicy(rawURL, scope string, headers http.Header) cachePolicy {
	if cache == nil || scope == "" {
		return cachePolicy{}
	}

	// Honor "no-cache" directive from the console: skip both read and write.
	lowerCacheControl := strings.ToLower(headers.Get("Cache-Control"))
	if strings.Contains(lowerCacheControl, "no-cache") {
		return cachePolicy{}
	}

	if item, ok := lookup(rawURL, scope); ok {
		return cachePolicy{shouldStore: true, cachedItem: item}
	}

	return cachePolicy{
		shouldStore: !strings.Contains(lowerCacheControl, "no-store"),
	}
}

// Lookup returns the cached response for rawURL within scope, if any.
//
// Callers use it to skip a login round-trip when the page is already known.
func Lookup(rawURL, scope string) (*Response, bool) {
	if cache == nil || scope == "" {
		return nil, false
	}

	item, ok := lookup(rawURL, scope)
	if !ok {
		return nil, false
	}

	return item.response(), true
}

func lookup(rawURL, scope string) (*cachedItem, bool) {
	cacheKey := generateCacheKey(rawURL, scope)

	cachedBytes, found := cache.Get(cacheKey)
	if !found {
		return nil, false
	}

	var item cachedItem
	if err := gob.NewDecoder(bytes.NewReader(cachedBytes)).Decode(&item); err != nil {
		log.Warn().Err(err).Str("url", rawURL).Msg("Failed to decode cached item; removing")
		cache.Remove(cacheKey)

		return nil, false
	}

	return &item, true
}

// store caches an OK response. Encoding errors are logged and otherwise ignored.
func store(rawURL, scope string, resp *Response) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(cachedItem{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       resp.Body,
		URL:        rawURL,
	}); err != nil {
		log.Warn().Err(err).Msg("Failed to serialize item for cache")

		return
	}

	cache.Add(generateCacheKey(rawURL, scope), buf.Bytes())
}

func (item *cachedItem) response() *Response {
	return &Response{
		StatusCode: item.StatusCode,
		Header:     item.Header.Clone(),
		Body:       item.Body,
		Cached:     true,
	}
}

// InvalidateScope removes every cached response of scope and returns their URLs.
//
// Safe to call even if caching is disabled.
func InvalidateScope(scope string) []string {
	if cache == nil || scope == "" {
		return nil
	}

	prefix := scopeKey(scope) + "|"

	removed := cache.RemoveFunc(func(key string) bool { return strings.HasPrefix(key, prefix) })

	urls := make([]string, 0, len(removed))
	for _, key := range removed {
		urls = append(urls, strings.TrimPrefix(key, prefix))
	}

	if len(urls) > 0 {
		log.Debug().
			Int("count", len(urls)).
			Strs("urls", urls).
			Msg("Invalidated cached Squash TM responses")
	}

	return urls
}
