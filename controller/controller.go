// CLAUDE:SUMMARY Controller — wires view events to model operations and routes failures to the views' error states.
// Package controller orchestrates user actions: it subscribes view handlers
// on an event bus, calls into the model and paints the results.
package controller

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/hazyhaar/larder/event"
	"github.com/hazyhaar/larder/internal/forkify"
	"github.com/hazyhaar/larder/model"
	"github.com/hazyhaar/larder/view"
)

// DefaultModalCloseAfter is how long the upload success message stays up.
const DefaultModalCloseAfter = 2500 * time.Millisecond

// Location is the browser location of the session.
type Location interface {
	Hash() string
	PushHash(id string)
}

// Scheduler runs fn after d on the same loop that delivers events.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func(ctx context.Context))
}

// Views are the views the controller paints.
type Views struct {
	Recipe     *view.RecipeView
	Results    *view.ResultsView
	Bookmarks  *view.BookmarksView
	Pagination *view.PaginationView
	Search     *view.SearchView
	AddRecipe  *view.AddRecipeView
}

// Controller handles user actions for one session.
type Controller struct {
	model           *model.Model
	views           Views
	location        Location
	scheduler       Scheduler
	modalCloseAfter time.Duration
	logger          *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithModalCloseAfter sets the delay before the upload window closes.
func WithModalCloseAfter(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.modalCloseAfter = d
		}
	}
}

// New creates a Controller.
func New(m *model.Model, v Views, loc Location, sched Scheduler, opts ...Option) *Controller {
	c := &Controller{
		model:           m,
		views:           v,
		location:        loc,
		scheduler:       sched,
		modalCloseAfter: DefaultModalCloseAfter,
		logger:          slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Init subscribes every handler on bus.
func (c *Controller) Init(bus *event.Bus) {
	c.views.Bookmarks.AddRenderHandler(bus, c.ControlBookmarks)
	c.views.Recipe.AddRenderHandler(bus, c.ControlRecipes)
	c.views.Recipe.AddUpdateServingsHandler(bus, c.ControlServings)
	c.views.Recipe.AddBookmarkHandler(bus, c.ControlAddBookmark)
	c.views.Search.AddSearchHandler(bus, c.ControlSearchResults)
	c.views.Pagination.AddClickHandler(bus, c.ControlPagination)
	c.views.AddRecipe.AddToggleHandlers(bus)
	c.views.AddRecipe.AddUploadHandler(bus, c.ControlAddRecipe)
}

// ControlRecipes loads and shows recipe id. The results and bookmarks lists
// are patched so the active entry follows the location.
func (c *Controller) ControlRecipes(ctx context.Context, id string) {
	if id == "" {
		return
	}
	c.views.Recipe.RenderSpinner()

	st := c.model.State()
	if page := c.model.SearchResultsPage(0); len(page) > 0 {
		c.warn("results", c.views.Results.Update(page))
	}
	if len(st.Bookmarks) > 0 {
		c.warn("bookmarks", c.views.Bookmarks.Update(st.Bookmarks))
	}

	if err := c.model.LoadRecipe(ctx, id); err != nil {
		c.logger.Warn("controller: load recipe", "id", id, "error", err)
		c.views.Recipe.RenderError("")
		return
	}
	if err := c.views.Recipe.Render(st.Recipe); err != nil {
		c.logger.Error("controller: render recipe", "id", id, "error", err)
		c.views.Recipe.RenderError("")
	}
}

// ControlSearchResults runs query and shows the first page of results.
func (c *Controller) ControlSearchResults(ctx context.Context, query string) {
	if query == "" {
		return
	}
	c.views.Results.RenderSpinner()

	if err := c.model.LoadSearchResults(ctx, query); err != nil {
		c.logger.Warn("controller: search", "query", query, "error", err)
		c.views.Results.RenderError("")
		return
	}
	c.showPage(0)
}

// ControlPagination shows page of the current results.
func (c *Controller) ControlPagination(_ context.Context, page int) {
	c.showPage(page)
}

func (c *Controller) showPage(page int) {
	if err := c.views.Results.Render(c.model.SearchResultsPage(page)); err != nil {
		c.logger.Error("controller: render results", "error", err)
		c.views.Results.RenderError("")
		return
	}
	if err := c.views.Pagination.Render(c.model.State().Search); err != nil {
		c.logger.Error("controller: render pagination", "error", err)
	}
}

// ControlServings rescales the current recipe and patches the recipe view.
func (c *Controller) ControlServings(_ context.Context, servings int) {
	if err := c.model.UpdateServings(servings); err != nil {
		c.logger.Warn("controller: update servings", "servings", servings, "error", err)
		return
	}
	c.warn("recipe", c.views.Recipe.Update(c.model.State().Recipe))
}

// ControlAddBookmark toggles the bookmark on the current recipe.
func (c *Controller) ControlAddBookmark(ctx context.Context) {
	st := c.model.State()
	r := st.Recipe
	if r == nil {
		return
	}
	var err error
	if r.Bookmarked {
		err = c.model.DeleteBookmark(ctx, r.ID)
	} else {
		err = c.model.AddBookmark(ctx, r)
	}
	if err != nil {
		c.logger.Error("controller: toggle bookmark", "id", r.ID, "error", err)
		return
	}
	c.warn("recipe", c.views.Recipe.Update(r))
	c.warn("bookmarks", c.views.Bookmarks.Render(st.Bookmarks))
}

// ControlBookmarks shows the bookmark list.
func (c *Controller) ControlBookmarks(context.Context) {
	c.warn("bookmarks", c.views.Bookmarks.Render(c.model.State().Bookmarks))
}

// ControlAddRecipe uploads a recipe, shows it, and closes the modal after
// a short success message.
func (c *Controller) ControlAddRecipe(ctx context.Context, form map[string]string) {
	c.views.AddRecipe.RenderSpinner()

	if err := c.model.UploadRecipe(ctx, form); err != nil {
		c.logger.Warn("controller: upload recipe", "error", err)
		c.views.AddRecipe.RenderError(userMessage(err))
		return
	}
	st := c.model.State()
	c.warn("recipe", c.views.Recipe.Render(st.Recipe))
	c.views.AddRecipe.RenderMessage("")
	c.warn("bookmarks", c.views.Bookmarks.Render(st.Bookmarks))
	c.location.PushHash(st.Recipe.ID)

	c.scheduler.AfterFunc(c.modalCloseAfter, func(context.Context) {
		if c.views.AddRecipe.Open() {
			c.views.AddRecipe.ToggleWindow()
		}
	})
}

// warn logs a view failure. ErrNotRendered is expected before first paint.
func (c *Controller) warn(what string, err error) {
	if err == nil || errors.Is(err, view.ErrNotRendered) {
		return
	}
	c.logger.Warn("controller: paint "+what, "error", err)
}

// userMessage turns an upload failure into text for the upload form.
func userMessage(err error) string {
	var apiErr *forkify.APIError
	switch {
	case errors.Is(err, model.ErrIngredientFormat):
		return model.ErrIngredientFormat.Error()
	case errors.Is(err, model.ErrUploadField):
		msg := err.Error()
		if i := strings.Index(msg, model.ErrUploadField.Error()+": "); i >= 0 {
			msg = msg[i+len(model.ErrUploadField.Error())+2:]
		}
		return "Invalid recipe: " + msg
	case errors.Is(err, forkify.ErrTimeout):
		return "Request took too long! Please try again."
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	}
	return "Could not upload the recipe. Please try again."
}
