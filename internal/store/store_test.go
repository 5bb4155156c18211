package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/hazyhaar/larder/model"
)

func recipe(id string) *model.Recipe {
	q := 2.0
	return &model.Recipe{
		ID: id, Title: "Dish " + id, Publisher: "P", Servings: 2, CookingTime: 10,
		Ingredients: []model.Ingredient{{Quantity: &q, Unit: "g", Description: "salt"}},
	}
}

func TestBookmarkCRUD(t *testing.T) {
	s := OpenMemory(t)
	ctx := context.Background()

	for _, id := range []string{"b", "a", "c"} {
		if err := s.PutBookmark(ctx, recipe(id)); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}
	updated := recipe("a")
	updated.Servings = 6
	if err := s.PutBookmark(ctx, updated); err != nil {
		t.Fatal(err)
	}

	got, err := s.ListBookmarks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, r := range got {
		ids = append(ids, r.ID)
		if !r.Bookmarked {
			t.Errorf("%s: Bookmarked false", r.ID)
		}
	}
	if diff := cmp.Diff([]string{"b", "a", "c"}, ids); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
	if got[1].Servings != 6 {
		t.Errorf("Servings: got %d, want 6", got[1].Servings)
	}
	if got[1].Ingredients[0].Quantity == nil || *got[1].Ingredients[0].Quantity != 2 {
		t.Error("ingredient quantity lost")
	}

	if err := s.DeleteBookmark(ctx, "b"); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteBookmark(ctx, "missing"); err != nil {
		t.Fatal(err)
	}
	got, _ = s.ListBookmarks(ctx)
	if len(got) != 2 {
		t.Errorf("after delete: got %d, want 2", len(got))
	}

	if err := s.ClearBookmarks(ctx); err != nil {
		t.Fatal(err)
	}
	got, _ = s.ListBookmarks(ctx)
	if len(got) != 0 {
		t.Errorf("after clear: got %d, want 0", len(got))
	}
}

func TestStoreSatisfiesBookmarkStore(t *testing.T) {
	var _ model.BookmarkStore = OpenMemory(t)
}

type countingBackend struct {
	gets int
	err  error
}

func (b *countingBackend) GetRecipe(_ context.Context, id string) (*model.Recipe, error) {
	b.gets++
	if b.err != nil {
		return nil, b.err
	}
	return recipe(id), nil
}

func (b *countingBackend) SearchRecipes(context.Context, string) ([]model.SearchResult, error) {
	return nil, nil
}

func (b *countingBackend) CreateRecipe(_ context.Context, r *model.Recipe) (*model.Recipe, error) {
	cp := *r
	cp.ID = "created"
	return &cp, nil
}

func TestCachedBackend(t *testing.T) {
	s := OpenMemory(t)
	now := time.UnixMilli(1_700_000_000_000)
	s.now = func() time.Time { return now }
	backend := &countingBackend{}
	c := Cached(backend, s, time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	if _, err := c.GetRecipe(ctx, "r1"); err != nil {
		t.Fatal(err)
	}
	r, err := c.GetRecipe(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}
	if backend.gets != 1 {
		t.Errorf("backend gets: got %d, want 1", backend.gets)
	}
	if r.Title != "Dish r1" {
		t.Errorf("Title: got %q", r.Title)
	}

	now = now.Add(2 * time.Hour)
	if _, err := c.GetRecipe(ctx, "r1"); err != nil {
		t.Fatal(err)
	}
	if backend.gets != 2 {
		t.Errorf("backend gets after expiry: got %d, want 2", backend.gets)
	}

	n, err := s.PurgeCache(ctx, now.Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("purged: got %d, want 1", n)
	}
}

func TestCachedBackend_ErrorNotCached(t *testing.T) {
	s := OpenMemory(t)
	boom := errors.New("upstream down")
	c := Cached(&countingBackend{err: boom}, s, time.Hour, nil)
	if _, err := c.GetRecipe(context.Background(), "r1"); !errors.Is(err, boom) {
		t.Fatalf("error: got %v, want %v", err, boom)
	}
	hit, err := s.GetCachedRecipe(context.Background(), "r1")
	if err != nil {
		t.Fatal(err)
	}
	if hit != nil {
		t.Error("failed fetch was cached")
	}
}

func TestCachedBackend_CreateIsCached(t *testing.T) {
	s := OpenMemory(t)
	c := Cached(&countingBackend{}, s, time.Hour, nil)
	created, err := c.CreateRecipe(context.Background(), recipe(""))
	if err != nil {
		t.Fatal(err)
	}
	hit, err := s.GetCachedRecipe(context.Background(), created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if hit == nil || hit.Recipe.Title != created.Title {
		t.Errorf("cached: got %+v", hit)
	}
}
