package forkify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/hazyhaar/larder/model"
)

const recipeJSON = `{"status":"success","data":{"recipe":{
	"id":"5ed6604591c37cdc054bcc40","title":"Pizza","publisher":"Closet Cooking",
	"source_url":"http://example.com/pizza","image_url":"http://example.com/pizza.jpg",
	"servings":4,"cooking_time":45,
	"ingredients":[{"quantity":1.5,"unit":"cups","description":"flour"},{"quantity":null,"unit":"","description":"salt"}]}}}`

func TestGetRecipe(t *testing.T) {
	var gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		w.Write([]byte(recipeJSON))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/api/v2/recipes", Key: "k1"}, srv.Client())
	r, err := c.GetRecipe(context.Background(), "5ed6604591c37cdc054bcc40")
	if err != nil {
		t.Fatal(err)
	}
	if gotPath != "/api/v2/recipes/5ed6604591c37cdc054bcc40" {
		t.Errorf("path: got %q", gotPath)
	}
	if gotKey != "k1" {
		t.Errorf("key: got %q, want %q", gotKey, "k1")
	}
	if r.Title != "Pizza" || r.Servings != 4 || r.CookingTime != 45 || r.Image != "http://example.com/pizza.jpg" {
		t.Errorf("recipe: got %+v", r)
	}
	if len(r.Ingredients) != 2 || *r.Ingredients[0].Quantity != 1.5 || r.Ingredients[1].Quantity != nil {
		t.Errorf("ingredients: got %+v", r.Ingredients)
	}
}

func TestSearchRecipes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("search"); got != "pizza" {
			t.Errorf("search: got %q, want %q", got, "pizza")
		}
		w.Write([]byte(`{"status":"success","results":2,"data":{"recipes":[
			{"id":"a","title":"A","publisher":"P","image_url":"http://x/a.jpg"},
			{"id":"b","title":"B","publisher":"P","image_url":"http://x/b.jpg","key":"k"}]}}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/"}, srv.Client())
	got, err := c.SearchRecipes(context.Background(), "pizza")
	if err != nil {
		t.Fatal(err)
	}
	want := []model.SearchResult{
		{ID: "a", Title: "A", Publisher: "P", Image: "http://x/a.jpg"},
		{ID: "b", Title: "B", Publisher: "P", Image: "http://x/b.jpg", Key: "k"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("results (-want +got):\n%s", diff)
	}
}

func TestCreateRecipe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method: got %s", r.Method)
		}
		var in wireRecipe
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if in.SourceURL != "https://example.com/t" || in.ID != "" {
			t.Errorf("wire body: got %+v", in)
		}
		in.ID = "new"
		in.Key = "k1"
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"status": "success", "data": map[string]any{"recipe": in}})
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/", Key: "k1"}, srv.Client())
	created, err := c.CreateRecipe(context.Background(), &model.Recipe{
		Title: "T", Publisher: "P", SourceURL: "https://example.com/t", Image: "https://example.com/t.jpg",
		Servings: 2, CookingTime: 5,
	})
	if err != nil {
		t.Fatal(err)
	}
	if created.ID != "new" || created.Key != "k1" || !created.UserGenerated() {
		t.Errorf("created: got %+v", created)
	}
}

func TestAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":"fail","message":"Invalid _id: nope"}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/"}, srv.Client())
	_, err := c.GetRecipe(context.Background(), "nope")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error: got %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Message != "Invalid _id: nope" {
		t.Errorf("APIError: got %+v", apiErr)
	}
}

func TestInvalidRecipeRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","data":{"recipe":{"id":"x","title":"","servings":1}}}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/"}, srv.Client())
	if _, err := c.GetRecipe(context.Background(), "x"); !errors.Is(err, model.ErrInvalidRecipe) {
		t.Fatalf("error: got %v, want ErrInvalidRecipe", err)
	}
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := New(Config{BaseURL: srv.URL + "/", Timeout: 50 * time.Millisecond}, srv.Client())
	if _, err := c.GetRecipe(context.Background(), "slow"); !errors.Is(err, ErrTimeout) {
		t.Fatalf("error: got %v, want ErrTimeout", err)
	}
}

func TestBodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","data":{"recipes":[` + strings.Repeat(" ", 2048) + `]}}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/", MaxBytes: 1024}, srv.Client())
	if _, err := c.SearchRecipes(context.Background(), "q"); err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("error: got %v, want size limit", err)
	}
}
