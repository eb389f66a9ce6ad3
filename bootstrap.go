package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hack-pad/hackpadfs"

	"github.com/seqsense/structviewer/resource"
)

// assetCache persists the asset bundle between page loads.
type assetCache interface {
	// Load returns false if the key is absent.
	Load(key string) ([]byte, bool, error)
	Save(key string, b []byte) error
}

// bootstrap initializes the resource manager from the cached asset bundle,
// or downloads the bundle and caches it when the cache is cold.
func bootstrap(ctx context.Context, cfg assetConfig, f resource.Fetcher, c assetCache, log *slog.Logger) (*resource.Manager, error) {
	if !cfg.Cache || c == nil {
		log.Info("loading assets", "url", cfg.URL)
		return resource.Fetch(ctx, f, cfg.URL)
	}

	b, ok, err := c.Load(cfg.CacheKey)
	switch {
	case err != nil:
		log.Warn("failed to read asset cache", "key", cfg.CacheKey, "error", err)
	case ok:
		m, err := resource.Load(b)
		if err == nil {
			log.Info("assets loaded from cache", "key", cfg.CacheKey, "bytes", len(b))
			return m, nil
		}
		log.Warn("discarding broken asset cache", "key", cfg.CacheKey, "error", err)
	}

	log.Info("downloading assets", "url", cfg.URL)
	b, err = f.Fetch(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("fetching assets: %w", err)
	}
	m, err := resource.Load(b)
	if err != nil {
		return nil, fmt.Errorf("loading assets: %w", err)
	}
	if err := c.Save(cfg.CacheKey, b); err != nil {
		log.Warn("failed to cache assets", "key", cfg.CacheKey, "error", err)
	} else {
		log.Info("assets cached", "key", cfg.CacheKey, "bytes", len(b))
	}
	return m, nil
}

// fsCache stores each key as a file of a hackpadfs file system.
type fsCache struct {
	fs hackpadfs.FS
}

func (c *fsCache) Load(key string) ([]byte, bool, error) {
	b, err := hackpadfs.ReadFile(c.fs, key)
	if errors.Is(err, hackpadfs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Save writes the value. On failure the key is removed so that a partial
// value is never loaded.
func (c *fsCache) Save(key string, b []byte) error {
	err := hackpadfs.WriteFullFile(c.fs, key, b, 0o644)
	if err == nil {
		return nil
	}
	if rmErr := hackpadfs.Remove(c.fs, key); rmErr != nil && !errors.Is(rmErr, hackpadfs.ErrNotExist) {
		return errors.Join(err, rmErr)
	}
	return err
}
