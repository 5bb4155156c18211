package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hazyhaar/larder/model"
)

// ListBookmarks returns bookmarked recipes in the order they were added.
func (s *Store) ListBookmarks(ctx context.Context) ([]*model.Recipe, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT recipe_json FROM bookmarks ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("store: list bookmarks: %w", err)
	}
	defer rows.Close()

	var out []*model.Recipe
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("store: scan bookmark: %w", err)
		}
		var r model.Recipe
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("store: decode bookmark: %w", err)
		}
		r.Bookmarked = true
		out = append(out, &r)
	}
	return out, rows.Err()
}

// PutBookmark stores r as a bookmark, replacing the stored copy if any.
func (s *Store) PutBookmark(ctx context.Context, r *model.Recipe) error {
	snap := *r
	snap.Bookmarked = true
	raw, err := json.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("store: encode bookmark: %w", err)
	}
	_, err = s.exec(ctx, `
		INSERT INTO bookmarks (id, recipe_json, created_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET recipe_json = excluded.recipe_json`,
		r.ID, string(raw), s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("store: put bookmark %s: %w", r.ID, err)
	}
	return nil
}

// DeleteBookmark removes the bookmark for id. Missing ids are not an error.
func (s *Store) DeleteBookmark(ctx context.Context, id string) error {
	if _, err := s.exec(ctx, `DELETE FROM bookmarks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("store: delete bookmark %s: %w", id, err)
	}
	return nil
}

// ClearBookmarks removes every bookmark.
func (s *Store) ClearBookmarks(ctx context.Context) error {
	if _, err := s.exec(ctx, `DELETE FROM bookmarks`); err != nil {
		return fmt.Errorf("store: clear bookmarks: %w", err)
	}
	return nil
}
