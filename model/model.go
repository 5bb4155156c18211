// CLAUDE:SUMMARY Data-access model — recipe load, search and pagination, servings scaling, bookmarks, recipe upload.
// Package model is the data-access layer consumed by the controller. It
// fetches recipes through a Backend, persists bookmarks through a
// BookmarkStore and keeps the per-session State.
//
// A Model is not safe for concurrent use. A live session confines it to its
// event loop.
package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/microcosm-cc/bluemonday"
)

// ErrNoRecipe is returned by operations that need a current recipe.
var ErrNoRecipe = errors.New("model: no current recipe")

// ErrInvalidServings is returned by UpdateServings for non-positive values.
var ErrInvalidServings = errors.New("model: servings must be positive")

// Backend is the remote recipe source.
type Backend interface {
	GetRecipe(ctx context.Context, id string) (*Recipe, error)
	SearchRecipes(ctx context.Context, query string) ([]SearchResult, error)
	CreateRecipe(ctx context.Context, r *Recipe) (*Recipe, error)
}

// BookmarkStore persists bookmarks keyed by recipe id.
type BookmarkStore interface {
	ListBookmarks(ctx context.Context) ([]*Recipe, error)
	PutBookmark(ctx context.Context, r *Recipe) error
	DeleteBookmark(ctx context.Context, id string) error
}

// DefaultResultsPerPage is the page size of search results.
const DefaultResultsPerPage = 10

// Model holds session state and talks to the backend and store.
type Model struct {
	backend   Backend
	bookmarks BookmarkStore
	state     State
	policy    *bluemonday.Policy
	logger    *slog.Logger
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) { m.logger = l }
}

// WithResultsPerPage sets the search page size. Default: 10.
func WithResultsPerPage(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.state.Search.ResultsPerPage = n
		}
	}
}

// New creates a Model. Call Init to load persisted bookmarks.
func New(backend Backend, bookmarks BookmarkStore, opts ...Option) *Model {
	m := &Model{
		backend:   backend,
		bookmarks: bookmarks,
		state:     State{Search: Search{Page: 1, ResultsPerPage: DefaultResultsPerPage}},
		policy:    bluemonday.StrictPolicy(),
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// Init loads persisted bookmarks into the state.
func (m *Model) Init(ctx context.Context) error {
	bs, err := m.bookmarks.ListBookmarks(ctx)
	if err != nil {
		return fmt.Errorf("model: load bookmarks: %w", err)
	}
	m.state.Bookmarks = bs
	return nil
}

// State returns the live state. Callers must not retain it across events.
func (m *Model) State() *State { return &m.state }

// LoadRecipe fetches id and makes it the current recipe.
func (m *Model) LoadRecipe(ctx context.Context, id string) error {
	r, err := m.backend.GetRecipe(ctx, id)
	if err != nil {
		return fmt.Errorf("model: load recipe %s: %w", id, err)
	}
	if err := r.Validate(); err != nil {
		return err
	}
	r.Bookmarked = m.IsBookmarked(r.ID)
	m.state.Recipe = r
	return nil
}

// LoadSearchResults runs query and resets pagination to the first page.
func (m *Model) LoadSearchResults(ctx context.Context, query string) error {
	results, err := m.backend.SearchRecipes(ctx, query)
	if err != nil {
		return fmt.Errorf("model: search %q: %w", query, err)
	}
	valid := make([]SearchResult, 0, len(results))
	for _, r := range results {
		if err := r.Validate(); err != nil {
			m.logger.Warn("model: dropping search result", "query", query, "error", err)
			continue
		}
		valid = append(valid, r)
	}
	m.state.Search.Query = query
	m.state.Search.Results = valid
	m.state.Search.Page = 1
	return nil
}

// SearchResultsPage selects page (page <= 0 keeps the current page) and
// returns its slice of the cached results.
func (m *Model) SearchResultsPage(page int) []SearchResult {
	s := &m.state.Search
	if page > 0 {
		s.Page = page
	}
	start := (s.Page - 1) * s.ResultsPerPage
	end := s.Page * s.ResultsPerPage
	if start < 0 {
		start = 0
	}
	if start > len(s.Results) {
		start = len(s.Results)
	}
	if end > len(s.Results) {
		end = len(s.Results)
	}
	return s.Results[start:end]
}

// UpdateServings rescales every ingredient quantity of the current recipe.
func (m *Model) UpdateServings(servings int) error {
	r := m.state.Recipe
	if r == nil {
		return ErrNoRecipe
	}
	if servings <= 0 {
		return ErrInvalidServings
	}
	for i := range r.Ingredients {
		if q := r.Ingredients[i].Quantity; q != nil {
			v := *q * float64(servings) / float64(r.Servings)
			r.Ingredients[i].Quantity = &v
		}
	}
	r.Servings = servings
	return nil
}

// IsBookmarked reports whether id is bookmarked.
func (m *Model) IsBookmarked(id string) bool {
	for _, b := range m.state.Bookmarks {
		if b.ID == id {
			return true
		}
	}
	return false
}

// AddBookmark bookmarks r and persists it.
func (m *Model) AddBookmark(ctx context.Context, r *Recipe) error {
	if r == nil {
		return ErrNoRecipe
	}
	if m.IsBookmarked(r.ID) {
		return nil
	}
	if err := m.bookmarks.PutBookmark(ctx, r); err != nil {
		return fmt.Errorf("model: add bookmark %s: %w", r.ID, err)
	}
	m.state.Bookmarks = append(m.state.Bookmarks, r)
	if cur := m.state.Recipe; cur != nil && cur.ID == r.ID {
		cur.Bookmarked = true
	}
	return nil
}

// DeleteBookmark removes the bookmark for id and persists the removal.
func (m *Model) DeleteBookmark(ctx context.Context, id string) error {
	if err := m.bookmarks.DeleteBookmark(ctx, id); err != nil {
		return fmt.Errorf("model: delete bookmark %s: %w", id, err)
	}
	kept := make([]*Recipe, 0, len(m.state.Bookmarks))
	for _, b := range m.state.Bookmarks {
		if b.ID != id {
			kept = append(kept, b)
		}
	}
	m.state.Bookmarks = kept
	if cur := m.state.Recipe; cur != nil && cur.ID == id {
		cur.Bookmarked = false
	}
	return nil
}

// UploadRecipe normalises a submitted form, creates the recipe through the
// backend, makes it the current recipe and bookmarks it.
func (m *Model) UploadRecipe(ctx context.Context, form map[string]string) error {
	draft, err := ParseUpload(form, m.policy)
	if err != nil {
		return err
	}
	created, err := m.backend.CreateRecipe(ctx, draft)
	if err != nil {
		return fmt.Errorf("model: upload recipe: %w", err)
	}
	if err := created.Validate(); err != nil {
		return err
	}
	m.state.Recipe = created
	return m.AddBookmark(ctx, created)
}
