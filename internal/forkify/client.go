// CLAUDE:SUMMARY HTTP client for the forkify recipe API — fetch by id, search, upload — with timeout and bounded reads.
// Package forkify talks to the forkify recipe API and converts its wire
// format into validated model types.
package forkify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hazyhaar/larder/model"
)

// DefaultBaseURL is the public forkify v2 endpoint.
const DefaultBaseURL = "https://forkify-api.herokuapp.com/api/v2/recipes/"

// ErrTimeout is returned when a request outlives Config.Timeout.
var ErrTimeout = errors.New("forkify: request took too long")

// APIError is a non-success answer from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("forkify: http %d", e.StatusCode)
	}
	return fmt.Sprintf("forkify: %s (%d)", e.Message, e.StatusCode)
}

// Config configures the client.
type Config struct {
	BaseURL   string        // Default: DefaultBaseURL.
	Key       string        // API key, required for uploads and for seeing own recipes.
	Timeout   time.Duration // Per request. Default: 10s.
	MaxBytes  int64         // Max response body size. Default: 1MB.
	UserAgent string
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(c.BaseURL, "/") {
		c.BaseURL += "/"
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 1 << 20
	}
	if c.UserAgent == "" {
		c.UserAgent = "larder/1.0"
	}
}

// Client implements model.Backend against the API.
type Client struct {
	http   *http.Client
	config Config
}

// New creates a Client. hc may be nil.
func New(cfg Config, hc *http.Client) *Client {
	cfg.defaults()
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{http: hc, config: cfg}
}

type wireIngredient struct {
	Quantity    *float64 `json:"quantity"`
	Unit        string   `json:"unit"`
	Description string   `json:"description"`
}

type wireRecipe struct {
	ID          string           `json:"id,omitempty"`
	Title       string           `json:"title"`
	Publisher   string           `json:"publisher"`
	SourceURL   string           `json:"source_url"`
	ImageURL    string           `json:"image_url"`
	Servings    int              `json:"servings"`
	CookingTime int              `json:"cooking_time"`
	Ingredients []wireIngredient `json:"ingredients"`
	Key         string           `json:"key,omitempty"`
}

type wireResult struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Publisher string `json:"publisher"`
	Image     string `json:"image_url"`
	Key       string `json:"key,omitempty"`
}

type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Recipe  *wireRecipe  `json:"recipe"`
		Recipes []wireResult `json:"recipes"`
	} `json:"data"`
}

func (w *wireRecipe) model() *model.Recipe {
	r := &model.Recipe{
		ID:          w.ID,
		Title:       w.Title,
		Publisher:   w.Publisher,
		SourceURL:   w.SourceURL,
		Image:       w.ImageURL,
		Servings:    w.Servings,
		CookingTime: w.CookingTime,
		Key:         w.Key,
		Ingredients: make([]model.Ingredient, len(w.Ingredients)),
	}
	for i, ing := range w.Ingredients {
		r.Ingredients[i] = model.Ingredient(ing)
	}
	return r
}

func fromModel(r *model.Recipe) *wireRecipe {
	w := &wireRecipe{
		Title:       r.Title,
		Publisher:   r.Publisher,
		SourceURL:   r.SourceURL,
		ImageURL:    r.Image,
		Servings:    r.Servings,
		CookingTime: r.CookingTime,
		Ingredients: make([]wireIngredient, len(r.Ingredients)),
	}
	for i, ing := range r.Ingredients {
		w.Ingredients[i] = wireIngredient(ing)
	}
	return w
}

// GetRecipe fetches one recipe by id.
func (c *Client) GetRecipe(ctx context.Context, id string) (*model.Recipe, error) {
	env, err := c.do(ctx, http.MethodGet, url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, err
	}
	if env.Data.Recipe == nil {
		return nil, fmt.Errorf("forkify: recipe %s: empty response", id)
	}
	r := env.Data.Recipe.model()
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("forkify: recipe %s: %w", id, err)
	}
	return r, nil
}

// SearchRecipes returns every result for query.
func (c *Client) SearchRecipes(ctx context.Context, query string) ([]model.SearchResult, error) {
	env, err := c.do(ctx, http.MethodGet, "", url.Values{"search": {query}}, nil)
	if err != nil {
		return nil, err
	}
	out := make([]model.SearchResult, len(env.Data.Recipes))
	for i, w := range env.Data.Recipes {
		out[i] = model.SearchResult(w)
	}
	return out, nil
}

// CreateRecipe uploads r and returns the stored recipe with its id and key.
func (c *Client) CreateRecipe(ctx context.Context, r *model.Recipe) (*model.Recipe, error) {
	body, err := json.Marshal(fromModel(r))
	if err != nil {
		return nil, fmt.Errorf("forkify: encode recipe: %w", err)
	}
	env, err := c.do(ctx, http.MethodPost, "", nil, body)
	if err != nil {
		return nil, err
	}
	if env.Data.Recipe == nil {
		return nil, errors.New("forkify: create recipe: empty response")
	}
	created := env.Data.Recipe.model()
	if err := created.Validate(); err != nil {
		return nil, fmt.Errorf("forkify: created recipe: %w", err)
	}
	return created, nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body []byte) (*envelope, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	if q == nil {
		q = url.Values{}
	}
	if c.config.Key != "" {
		q.Set("key", c.config.Key)
	}
	u := c.config.BaseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, fmt.Errorf("forkify: new request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, fmt.Errorf("%w: after %s", ErrTimeout, c.config.Timeout)
		}
		return nil, fmt.Errorf("forkify: %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := limitedReadAll(resp.Body, c.config.MaxBytes)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, fmt.Errorf("%w: after %s", ErrTimeout, c.config.Timeout)
		}
		return nil, fmt.Errorf("forkify: read body: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || env.Status == "fail" || env.Status == "error" {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("forkify: decode response: %w", decodeErr)
	}
	return &env, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// limitedReadAll reads at most maxBytes from r and fails beyond that.
func limitedReadAll(r io.Reader, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("forkify: response exceeds %d bytes", maxBytes)
	}
	return data, nil
}
