// CLAUDE:SUMMARY Assembly root — opens the store, builds the API client and session manager, serves HTTP, exports recipes as Markdown.
// Package larder assembles the recipe app: SQLite bookmarks and cache, the
// recipe API client, live browser sessions, a Markdown export and MCP tools.
package larder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/larder/dom"
	"github.com/hazyhaar/larder/internal/forkify"
	"github.com/hazyhaar/larder/internal/store"
	"github.com/hazyhaar/larder/live"
	"github.com/hazyhaar/larder/model"
	"github.com/hazyhaar/larder/view"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

// App is a running larder instance.
type App struct {
	cfg     Config
	logger  *slog.Logger
	store   *store.Store
	backend model.Backend
	manager *live.Manager
	md      *converter.Converter
}

// Option configures an App.
type Option func(*appOptions)

type appOptions struct {
	backend    model.Backend
	httpClient *http.Client
	store      *store.Store
	trace      io.Writer
}

// WithBackend replaces the recipe API client. The cache still applies.
func WithBackend(b model.Backend) Option {
	return func(o *appOptions) { o.backend = b }
}

// WithHTTPClient sets the client used for recipe API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *appOptions) { o.httpClient = hc }
}

// WithStore uses an already open store instead of opening cfg.DBPath.
// The App takes ownership and closes it.
func WithStore(s *store.Store) Option {
	return func(o *appOptions) { o.store = s }
}

// WithTrace writes every published batch to w as JSON lines.
func WithTrace(w io.Writer) Option {
	return func(o *appOptions) { o.trace = w }
}

// New wires an App from cfg. Zero fields take their defaults.
func New(cfg *Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	c := *cfg
	c.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	var o appOptions
	for _, fn := range opts {
		fn(&o)
	}

	policy, err := dom.ParseMismatchPolicy(c.Reconcile.Mismatch)
	if err != nil {
		return nil, fmt.Errorf("larder: %w", err)
	}

	st := o.store
	if st == nil {
		st, err = store.Open(c.DBPath, store.WithMkdirAll())
		if err != nil {
			return nil, fmt.Errorf("larder: %w", err)
		}
	}

	backend := o.backend
	if backend == nil {
		backend = forkify.New(forkify.Config{
			BaseURL:  c.API.BaseURL,
			Key:      c.API.Key,
			Timeout:  c.API.Timeout,
			MaxBytes: c.API.MaxBytes,
		}, o.httpClient)
	}
	cached := store.Cached(backend, st, c.CacheTTL, logger)

	manager := live.NewManager(live.Config{
		Backend:         cached,
		Bookmarks:       st,
		Reconciler:      dom.NewReconciler(dom.WithMismatchPolicy(policy), dom.WithLogger(logger)),
		Icons:           c.IconsURL,
		ResultsPerPage:  c.ResultsPerPage,
		ModalCloseAfter: c.ModalCloseAfter,
		Idle:            c.SessionIdle,
		Logger:          logger,
		Trace:           o.trace,
	})

	logger.Info("larder: ready", "db", c.DBPath, "api", c.API.BaseURL, "mismatch", policy)
	return &App{
		cfg:     c,
		logger:  logger,
		store:   st,
		backend: cached,
		manager: manager,
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
	}, nil
}

// Config returns the effective configuration.
func (a *App) Config() Config { return a.cfg }

// Manager returns the live session manager.
func (a *App) Manager() *live.Manager { return a.manager }

// Run reaps idle sessions and purges expired cache entries until ctx is done.
func (a *App) Run(ctx context.Context) {
	go a.manager.Run(ctx)

	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := a.store.PurgeCache(ctx, now.Add(-a.cfg.CacheTTL))
			if err != nil {
				a.logger.Warn("larder: purge cache", "error", err)
				continue
			}
			if n > 0 {
				a.logger.Info("larder: purged cache", "count", n)
			}
		}
	}
}

// Handler returns the HTTP surface: the live app, the Markdown export and,
// when enabled, MCP over streamable HTTP.
func (a *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/recipes/{id}.md", a.handleMarkdown)
	live.NewHandler(a.manager, a.logger).Routes(r)

	if a.cfg.MCPHTTP {
		srv := a.MCPServer()
		r.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return srv }, nil))
	}
	return r
}

func (a *App) handleMarkdown(w http.ResponseWriter, r *http.Request) {
	md, err := a.RecipeMarkdown(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.logger.Warn("larder: markdown export", "id", chi.URLParam(r, "id"), "error", err)
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(md))
}

// statusFor maps a recipe lookup failure to an HTTP status.
func statusFor(err error) int {
	var apiErr *forkify.APIError
	switch {
	case errors.Is(err, forkify.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusNotFound || apiErr.StatusCode == http.StatusBadRequest):
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

// RecipeMarkdown renders recipe id with the recipe view markup and
// converts it to Markdown.
func (a *App) RecipeMarkdown(ctx context.Context, id string) (string, error) {
	r, err := a.backend.GetRecipe(ctx, id)
	if err != nil {
		return "", fmt.Errorf("larder: recipe %s: %w", id, err)
	}
	markup, err := view.RecipeMarkup(r, a.cfg.IconsURL)
	if err != nil {
		return "", fmt.Errorf("larder: recipe %s: %w", id, err)
	}
	md, err := a.md.ConvertString(markup)
	if err != nil {
		return "", fmt.Errorf("larder: markdown %s: %w", id, err)
	}
	return strings.TrimSpace(md) + "\n", nil
}

// Close stops every session and closes the store.
func (a *App) Close() error {
	return errors.Join(a.manager.Close(), a.store.Close())
}
