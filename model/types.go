// CLAUDE:SUMMARY Domain types — recipe, ingredient, search result, search state — validated at the data-access boundary.
package model

import (
	"errors"
	"fmt"
)

// ErrInvalidRecipe is wrapped by Validate failures.
var ErrInvalidRecipe = errors.New("model: invalid recipe")

// Ingredient is one line of a recipe. A nil Quantity means "to taste".
type Ingredient struct {
	Quantity    *float64 `json:"quantity"`
	Unit        string   `json:"unit"`
	Description string   `json:"description"`
}

// Recipe is a full recipe as shown in the recipe view.
type Recipe struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Publisher   string       `json:"publisher"`
	SourceURL   string       `json:"source_url"`
	Image       string       `json:"image_url"`
	Servings    int          `json:"servings"`
	CookingTime int          `json:"cooking_time"`
	Ingredients []Ingredient `json:"ingredients"`
	Key         string       `json:"key,omitempty"` // set on user-uploaded recipes
	Bookmarked  bool         `json:"bookmarked"`
}

// Validate checks the fields every view relies on.
func (r *Recipe) Validate() error {
	switch {
	case r == nil:
		return fmt.Errorf("%w: nil", ErrInvalidRecipe)
	case r.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidRecipe)
	case r.Title == "":
		return fmt.Errorf("%w: %s: missing title", ErrInvalidRecipe, r.ID)
	case r.Servings <= 0:
		return fmt.Errorf("%w: %s: servings %d", ErrInvalidRecipe, r.ID, r.Servings)
	case r.CookingTime < 0:
		return fmt.Errorf("%w: %s: cooking time %d", ErrInvalidRecipe, r.ID, r.CookingTime)
	}
	return nil
}

// Summary projects the recipe onto the preview shape used by lists.
func (r *Recipe) Summary() SearchResult {
	return SearchResult{
		ID:        r.ID,
		Title:     r.Title,
		Publisher: r.Publisher,
		Image:     r.Image,
		Key:       r.Key,
	}
}

// UserGenerated reports whether the recipe was uploaded by a user.
func (r *Recipe) UserGenerated() bool { return r.Key != "" }

// SearchResult is one entry of a search result list.
type SearchResult struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Publisher string `json:"publisher"`
	Image     string `json:"image_url"`
	Key       string `json:"key,omitempty"`
}

// Validate checks the fields the preview markup relies on.
func (s SearchResult) Validate() error {
	if s.ID == "" || s.Title == "" {
		return fmt.Errorf("%w: search result %q without id or title", ErrInvalidRecipe, s.ID)
	}
	return nil
}

// Search is the state of the last search.
type Search struct {
	Query          string         `json:"query"`
	Results        []SearchResult `json:"results"`
	Page           int            `json:"page"`
	ResultsPerPage int            `json:"results_per_page"`
}

// NumPages is the number of result pages, at least 1 when there are results.
func (s Search) NumPages() int {
	if s.ResultsPerPage <= 0 || len(s.Results) == 0 {
		return 0
	}
	return (len(s.Results) + s.ResultsPerPage - 1) / s.ResultsPerPage
}

// State is everything a session knows about the user's data.
type State struct {
	Recipe    *Recipe
	Search    Search
	Bookmarks []*Recipe
}
