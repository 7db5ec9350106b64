package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// DefaultCachePath is where the token record is kept when no path is configured.
const DefaultCachePath = ".token-oauth"

// TokenCache stores a single TokenRecord in a file. Access is assumed to be
// from one process.
type TokenCache struct {
	Path   string
	logger *zap.Logger
}

// NewTokenCache returns a cache at path (DefaultCachePath when empty).
func NewTokenCache(path string, logger *zap.Logger) *TokenCache {
	if path == "" {
		path = DefaultCachePath
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenCache{Path: path, logger: logger}
}

// Read returns the cached record, or nil when the file is missing or
// unreadable. Read problems are logged, never returned.
func (c *TokenCache) Read() *TokenRecord {
	b, err := os.ReadFile(c.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warn("could not read token cache", zap.String("path", c.Path), zap.Error(err))
		}
		return nil
	}
	rec, err := ParseTokenRecord(string(b))
	if err != nil {
		c.logger.Warn("could not decode token cache", zap.String("path", c.Path), zap.Error(err))
		return nil
	}
	return rec
}

// Write replaces the cached record. The new content is written next to the
// target and renamed over it.
func (c *TokenCache) Write(rec *TokenRecord) error {
	dir := filepath.Dir(c.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("could not create token directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(c.Path)+".*")
	if err != nil {
		return fmt.Errorf("unable to cache OAuth token to %s: %w", c.Path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("unable to cache OAuth token to %s: %w", c.Path, err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("unable to cache OAuth token to %s: %w", c.Path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("unable to cache OAuth token to %s: %w", c.Path, err)
	}
	if err := os.Rename(tmp.Name(), c.Path); err != nil {
		return fmt.Errorf("unable to cache OAuth token to %s: %w", c.Path, err)
	}
	c.logger.Debug("saved authentication token", zap.String("path", c.Path))
	return nil
}
