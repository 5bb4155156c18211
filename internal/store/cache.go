// CLAUDE:SUMMARY Recipe cache table and the Cached backend decorator serving GetRecipe from SQLite within a TTL.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/larder/model"
)

// CachedRecipe is a cache row.
type CachedRecipe struct {
	Recipe    *model.Recipe
	FetchedAt int64 // epoch milliseconds
}

// GetCachedRecipe returns the cached copy of id, or nil when absent.
func (s *Store) GetCachedRecipe(ctx context.Context, id string) (*CachedRecipe, error) {
	var raw string
	var fetched int64
	err := s.DB.QueryRowContext(ctx, `
		SELECT recipe_json, fetched_at FROM recipe_cache WHERE id = ?`, id).Scan(&raw, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get cached recipe %s: %w", id, err)
	}
	var r model.Recipe
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, fmt.Errorf("store: decode cached recipe %s: %w", id, err)
	}
	return &CachedRecipe{Recipe: &r, FetchedAt: fetched}, nil
}

// PutCachedRecipe stores r in the cache stamped with the current time.
func (s *Store) PutCachedRecipe(ctx context.Context, r *model.Recipe) error {
	snap := *r
	snap.Bookmarked = false
	raw, err := json.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("store: encode cached recipe: %w", err)
	}
	_, err = s.exec(ctx, `
		INSERT INTO recipe_cache (id, recipe_json, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET recipe_json = excluded.recipe_json, fetched_at = excluded.fetched_at`,
		r.ID, string(raw), s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("store: put cached recipe %s: %w", r.ID, err)
	}
	return nil
}

// PurgeCache deletes cache rows fetched before cutoff and returns how many
// went.
func (s *Store) PurgeCache(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.exec(ctx, `DELETE FROM recipe_cache WHERE fetched_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("store: purge cache: %w", err)
	}
	return res.RowsAffected()
}

// CachedBackend serves GetRecipe from the cache while the entry is younger
// than the TTL. Search and create go straight to the wrapped backend.
type CachedBackend struct {
	model.Backend
	store  *Store
	ttl    time.Duration
	logger *slog.Logger
}

// Cached wraps b with a recipe cache in s.
func Cached(b model.Backend, s *Store, ttl time.Duration, logger *slog.Logger) *CachedBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedBackend{Backend: b, store: s, ttl: ttl, logger: logger}
}

// GetRecipe returns a fresh cached copy or fetches and caches the recipe.
// Cache failures are logged and never fail the call.
func (c *CachedBackend) GetRecipe(ctx context.Context, id string) (*model.Recipe, error) {
	hit, err := c.store.GetCachedRecipe(ctx, id)
	if err != nil {
		c.logger.Warn("store: cache read", "id", id, "error", err)
	}
	if hit != nil && c.store.now().Sub(time.UnixMilli(hit.FetchedAt)) < c.ttl {
		return hit.Recipe, nil
	}

	r, err := c.Backend.GetRecipe(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.store.PutCachedRecipe(ctx, r); err != nil {
		c.logger.Warn("store: cache write", "id", id, "error", err)
	}
	return r, nil
}

// CreateRecipe creates through the wrapped backend and caches the result.
func (c *CachedBackend) CreateRecipe(ctx context.Context, r *model.Recipe) (*model.Recipe, error) {
	created, err := c.Backend.CreateRecipe(ctx, r)
	if err != nil {
		return nil, err
	}
	if err := c.store.PutCachedRecipe(ctx, created); err != nil {
		c.logger.Warn("store: cache write", "id", created.ID, "error", err)
	}
	return created, nil
}
