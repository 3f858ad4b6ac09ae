package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/allegro/bigcache/v3"
)

// CacheOptions sizes a CachingFetcher.
type CacheOptions struct {
	TTL time.Duration
	// MaxMB bounds the cache memory. Entries larger than MaxMB/Shards are
	// not cached.
	MaxMB  int
	Shards int
}

// CachingFetcher keeps successful responses for a short while so the same
// page or photo requested by consecutive jobs is downloaded once.
type CachingFetcher struct {
	next  Fetcher
	cache *bigcache.BigCache
}

// NewCachingFetcher wraps next. The cache is released when ctx is done or
// Close is called.
func NewCachingFetcher(ctx context.Context, next Fetcher, opts CacheOptions) (*CachingFetcher, error) {
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Minute
	}
	if opts.MaxMB <= 0 {
		opts.MaxMB = 64
	}
	if opts.Shards <= 0 {
		opts.Shards = 16
	}
	cfg := bigcache.DefaultConfig(opts.TTL)
	cfg.Shards = opts.Shards
	cfg.CleanWindow = opts.TTL / 2
	cfg.MaxEntriesInWindow = 1024
	cfg.MaxEntrySize = 256 << 10
	cfg.HardMaxCacheSize = opts.MaxMB
	cfg.Verbose = false

	cache, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create fetch cache: %w", err)
	}
	return &CachingFetcher{next: next, cache: cache}, nil
}

// Fetch serves rawURL from the cache or delegates and stores a 2xx response.
// Cached responses report zero attempts.
func (c *CachingFetcher) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	if entry, err := c.cache.Get(rawURL); err == nil {
		return decodeEntry(rawURL, entry), nil
	} else if !errors.Is(err, bigcache.ErrEntryNotFound) {
		return nil, fmt.Errorf("fetch cache: %w", err)
	}

	resp, err := c.next.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	// Oversized entries are rejected by the cache and simply refetched later.
	_ = c.cache.Set(rawURL, encodeEntry(resp))
	return resp, nil
}

// Len reports the number of cached responses.
func (c *CachingFetcher) Len() int { return c.cache.Len() }

// Close releases the cache.
func (c *CachingFetcher) Close() error { return c.cache.Close() }

// An entry is the final URL and content type, NUL separated, then the body.
func encodeEntry(resp *Response) []byte {
	var buf bytes.Buffer
	buf.Grow(len(resp.FinalURL) + len(resp.ContentType) + 2 + len(resp.Body))
	buf.WriteString(resp.FinalURL)
	buf.WriteByte(0)
	buf.WriteString(resp.ContentType)
	buf.WriteByte(0)
	buf.Write(resp.Body)
	return buf.Bytes()
}

func decodeEntry(rawURL string, entry []byte) *Response {
	parts := bytes.SplitN(entry, []byte{0}, 3)
	resp := &Response{URL: rawURL, FinalURL: rawURL, StatusCode: http.StatusOK}
	if len(parts) != 3 {
		resp.Body = entry
		return resp
	}
	if len(parts[0]) > 0 {
		resp.FinalURL = string(parts[0])
	}
	resp.ContentType = string(parts[1])
	resp.Body = parts[2]
	return resp
}
