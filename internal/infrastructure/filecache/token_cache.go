// Package filecache keeps the last primary-source listing in a single JSON file.
package filecache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"token_screener/internal/entity"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultCacheDir  = "data"
	defaultCacheFile = "token_cache.json"
)

// cacheDocument is the on-disk layout: {"tokens": [...], "cache_timestamp": "<RFC 3339>"}.
type cacheDocument struct {
	Tokens         []entity.BirdeyeToken `json:"tokens"`
	CacheTimestamp string                `json:"cache_timestamp"`
}

// TokenCache implements port.TokenCache on top of a JSON file.
type TokenCache struct {
	path      string
	freshness time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures a TokenCache.
type Option func(*TokenCache)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *TokenCache) {
		c.now = now
	}
}

// NewTokenCache creates a cache stored at dir/file.
func NewTokenCache(dir, file string, freshness time.Duration, logger *zap.Logger, opts ...Option) *TokenCache {
	if dir == "" {
		dir = defaultCacheDir
	}
	if file == "" {
		file = defaultCacheFile
	}
	c := &TokenCache{
		path:      filepath.Join(dir, file),
		freshness: freshness,
		logger:    logger.Named("TokenCache"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Path returns the cache file location.
func (c *TokenCache) Path() string {
	return c.path
}

// Load returns the cached records when the file exists, parses, carries a timestamp
// no older than the freshness window and holds at least one record. Every other
// outcome is a miss; Load never fails.
func (c *TokenCache) Load() ([]entity.BirdeyeToken, bool) {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warn("Failed to read token cache", zap.String("path", c.path), zap.Error(err))
		}
		return nil, false
	}

	var doc cacheDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		c.logger.Warn("Token cache is malformed, ignoring", zap.String("path", c.path), zap.Error(err))
		return nil, false
	}

	ts := strings.TrimSpace(doc.CacheTimestamp)
	if ts == "" {
		c.logger.Debug("Token cache has no timestamp, treating as stale")
		return nil, false
	}
	writtenAt, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		c.logger.Warn("Token cache timestamp is invalid, treating as stale", zap.String("timestamp", ts), zap.Error(err))
		return nil, false
	}

	age := c.now().Sub(writtenAt)
	if age > c.freshness {
		c.logger.Debug("Token cache expired", zap.Duration("age", age))
		return nil, false
	}
	if len(doc.Tokens) == 0 {
		return nil, false
	}

	c.logger.Info("Loaded tokens from cache", zap.Int("count", len(doc.Tokens)), zap.Duration("age", age))
	return doc.Tokens, true
}

// Save writes tokens with the current timestamp. The file is replaced atomically, so a
// crash mid-write leaves the previous cache intact.
func (c *TokenCache) Save(tokens []entity.BirdeyeToken) error {
	doc := cacheDocument{
		Tokens:         tokens,
		CacheTimestamp: c.now().UTC().Format(time.RFC3339Nano),
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode token cache: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp cache file: %w", err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		return fmt.Errorf("replace cache file %s: %w", c.path, err)
	}

	c.logger.Debug("Token cache saved", zap.String("path", c.path), zap.Int("count", len(tokens)))
	return nil
}
