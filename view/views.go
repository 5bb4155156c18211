// CLAUDE:SUMMARY Concrete recipe app views — recipe, results, bookmarks, pagination, search, add-recipe modal — and their event bindings.
package view

import (
	"context"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/hazyhaar/larder/dom"
	"github.com/hazyhaar/larder/event"
	"github.com/hazyhaar/larder/model"
	"github.com/hazyhaar/larder/mutation"
)

// Selectors of the page elements the views bind to.
const (
	RecipeSelector      = ".recipe"
	ResultsSelector     = ".results"
	BookmarksSelector   = ".bookmarks__list"
	PaginationSelector  = ".pagination"
	SearchSelector      = ".search"
	UploadSelector      = ".upload"
	WindowSelector      = ".add-recipe-window"
	OverlaySelector     = ".overlay"
	OpenModalSelector   = ".nav__btn--add-recipe"
	CloseModalSelector  = ".btn--close-modal"
	searchFieldSelector = ".search__field"
)

// Default user-facing messages.
const (
	RecipeErrorMessage    = "We could not find that recipe. Please try another one!"
	RecipeMessage         = "Start by searching for a recipe or an ingredient. Have fun!"
	ResultsErrorMessage   = "No recipes found for your query! Please try again ;)"
	BookmarksErrorMessage = "No bookmarks yet. Find a nice recipe and bookmark it ;)"
	UploadMessage         = "Recipe was successfully added!"
)

// DefaultIngredientSlots is the number of ingredient inputs in the upload form.
const DefaultIngredientSlots = 6

// target resolves the element an event hit and walks up to the closest
// match of selector inside the mount.
func target(m *dom.Mount, ev event.Event, selector string) *html.Node {
	el, err := m.Element(ev.Target)
	if err != nil {
		return nil
	}
	return dom.Closest(el, m.Node(), selector)
}

func intAttr(n *html.Node, key string) (int, bool) {
	v, err := strconv.Atoi(dom.Attr(n, key))
	return v, err == nil
}

// prepend puts defaults first so caller options override them.
func prepend(opts []Option, defaults ...Option) []Option {
	return append(defaults, opts...)
}

// RecipeView shows the current recipe.
type RecipeView struct {
	*View[*model.Recipe]
}

// NewRecipeView creates the recipe view over mount.
func NewRecipeView(mount *dom.Mount, opts ...Option) *RecipeView {
	v := &RecipeView{}
	v.View = New(mount, v.generate, prepend(opts,
		WithErrorMessage(RecipeErrorMessage), WithMessage(RecipeMessage))...)
	return v
}

type recipeData struct {
	*model.Recipe
	Icons string
}

func (v *RecipeView) generate(r *model.Recipe) (string, error) {
	return RecipeMarkup(r, v.Icons())
}

// RecipeMarkup returns the markup of the recipe view for r without a mount.
func RecipeMarkup(r *model.Recipe, icons string) (string, error) {
	return execute("recipe", recipeData{Recipe: r, Icons: icons})
}

// AddRenderHandler calls fn with the location hash on page load and on
// every hash change.
func (v *RecipeView) AddRenderHandler(bus *event.Bus, fn func(ctx context.Context, id string)) {
	h := func(ctx context.Context, ev event.Event) { fn(ctx, ev.Hash) }
	bus.On(event.Window, event.HashChange, h)
	bus.On(event.Window, event.Load, h)
}

// AddUpdateServingsHandler calls fn with the requested servings when a
// servings button is clicked.
func (v *RecipeView) AddUpdateServingsHandler(bus *event.Bus, fn func(ctx context.Context, servings int)) {
	bus.On(v.Mount().Selector(), event.Click, func(ctx context.Context, ev event.Event) {
		btn := target(v.Mount(), ev, ".btn--update-servings")
		if btn == nil {
			return
		}
		if n, ok := intAttr(btn, "data-update-to"); ok && n > 0 {
			fn(ctx, n)
		}
	})
}

// AddBookmarkHandler calls fn when the bookmark button is clicked.
func (v *RecipeView) AddBookmarkHandler(bus *event.Bus, fn func(ctx context.Context)) {
	bus.On(v.Mount().Selector(), event.Click, func(ctx context.Context, ev event.Event) {
		if target(v.Mount(), ev, ".btn--bookmark") != nil {
			fn(ctx)
		}
	})
}

type previewData struct {
	model.SearchResult
	Active bool
	Icons  string
}

func previews(rs []model.SearchResult, active, icons string) (string, error) {
	data := make([]previewData, len(rs))
	for i, r := range rs {
		data[i] = previewData{SearchResult: r, Active: r.ID == active, Icons: icons}
	}
	return execute("previews", data)
}

// ResultsView lists one page of search results. The entry matching the
// current location is marked active.
type ResultsView struct {
	*View[[]model.SearchResult]
	active func() string
}

// NewResultsView creates the results view. active returns the id of the
// recipe currently shown.
func NewResultsView(mount *dom.Mount, active func() string, opts ...Option) *ResultsView {
	v := &ResultsView{active: active}
	v.View = New(mount, v.generate, prepend(opts, WithErrorMessage(ResultsErrorMessage))...)
	return v
}

func (v *ResultsView) generate(rs []model.SearchResult) (string, error) {
	return previews(rs, v.active(), v.Icons())
}

// BookmarksView lists bookmarked recipes.
type BookmarksView struct {
	*View[[]*model.Recipe]
	active func() string
}

// NewBookmarksView creates the bookmarks view.
func NewBookmarksView(mount *dom.Mount, active func() string, opts ...Option) *BookmarksView {
	v := &BookmarksView{active: active}
	v.View = New(mount, v.generate, prepend(opts, WithErrorMessage(BookmarksErrorMessage))...)
	return v
}

func (v *BookmarksView) generate(rs []*model.Recipe) (string, error) {
	sums := make([]model.SearchResult, len(rs))
	for i, r := range rs {
		sums[i] = r.Summary()
	}
	return previews(sums, v.active(), v.Icons())
}

// AddRenderHandler calls fn on page load.
func (v *BookmarksView) AddRenderHandler(bus *event.Bus, fn func(ctx context.Context)) {
	bus.On(event.Window, event.Load, func(ctx context.Context, _ event.Event) { fn(ctx) })
}

// PaginationView shows previous/next page buttons for the current search.
type PaginationView struct {
	*View[model.Search]
}

// NewPaginationView creates the pagination view.
func NewPaginationView(mount *dom.Mount, opts ...Option) *PaginationView {
	v := &PaginationView{}
	v.View = New(mount, v.generate, opts...)
	return v
}

type paginationData struct {
	Page     int
	NumPages int
	Icons    string
}

func (v *PaginationView) generate(s model.Search) (string, error) {
	return execute("pagination", paginationData{Page: s.Page, NumPages: s.NumPages(), Icons: v.Icons()})
}

// AddClickHandler calls fn with the page a pagination button points to.
func (v *PaginationView) AddClickHandler(bus *event.Bus, fn func(ctx context.Context, page int)) {
	bus.On(v.Mount().Selector(), event.Click, func(ctx context.Context, ev event.Event) {
		btn := target(v.Mount(), ev, ".btn--inline")
		if btn == nil {
			return
		}
		if page, ok := intAttr(btn, "data-goto"); ok && page > 0 {
			fn(ctx, page)
		}
	})
}

// SearchView is the search form. It renders nothing.
type SearchView struct {
	mount     *dom.Mount
	publisher Publisher
}

// NewSearchView creates the search view. pub may be nil.
func NewSearchView(mount *dom.Mount, pub Publisher) *SearchView {
	return &SearchView{mount: mount, publisher: pub}
}

// AddSearchHandler calls fn with the submitted query after clearing the
// search field.
func (v *SearchView) AddSearchHandler(bus *event.Bus, fn func(ctx context.Context, query string)) {
	bus.On(v.mount.Selector(), event.Submit, func(ctx context.Context, ev event.Event) {
		query := strings.TrimSpace(ev.Form["query"])
		v.clearInput()
		fn(ctx, query)
	})
}

func (v *SearchView) clearInput() {
	field := v.mount.QuerySelector(searchFieldSelector)
	if field == nil || v.publisher == nil {
		return
	}
	v.publisher.Publish(v.mount.Selector(), []mutation.Record{
		{Op: mutation.OpValue, Index: v.mount.IndexOf(field), Value: ""},
	})
}

// UploadForm describes the add-recipe form.
type UploadForm struct {
	Ingredients int
}

// AddRecipeView is the add-recipe modal: the upload form plus the window
// and overlay it toggles.
type AddRecipeView struct {
	*View[UploadForm]
	window  *dom.Mount
	overlay *dom.Mount
	slots   int
}

// NewAddRecipeView creates the add-recipe view. form is the upload form
// mount, window and overlay are toggled together. The form is rendered
// when the mount holds nothing yet.
func NewAddRecipeView(form, window, overlay *dom.Mount, opts ...Option) (*AddRecipeView, error) {
	v := &AddRecipeView{window: window, overlay: overlay, slots: DefaultIngredientSlots}
	v.View = New(form, v.generate, prepend(opts, WithMessage(UploadMessage))...)
	if form.Empty() {
		if err := v.Render(UploadForm{Ingredients: v.slots}); err != nil {
			return nil, err
		}
	}
	return v, nil
}

type uploadData struct {
	Slots []int
	Icons string
}

func (v *AddRecipeView) generate(f UploadForm) (string, error) {
	slots := make([]int, f.Ingredients)
	for i := range slots {
		slots[i] = i + 1
	}
	return execute("upload", uploadData{Slots: slots, Icons: v.Icons()})
}

// Open reports whether the modal window is visible.
func (v *AddRecipeView) Open() bool {
	return !dom.HasClass(v.window.Node(), "hidden")
}

// ToggleWindow shows or hides the modal. Opening it after a message or an
// error brings the form back.
func (v *AddRecipeView) ToggleWindow() {
	opening := !v.Open()
	for _, m := range []*dom.Mount{v.overlay, v.window} {
		class := dom.ToggleClass(m.Node(), "hidden")
		if v.opts.publisher != nil {
			v.opts.publisher.Publish(m.Selector(), []mutation.Record{
				{Op: mutation.OpAttr, Index: mutation.RootIndex, Name: "class", Value: class},
			})
		}
	}
	if opening && v.Mount().QuerySelector("input") == nil {
		if err := v.Render(UploadForm{Ingredients: v.slots}); err != nil {
			v.opts.logger.Error("view: restore upload form", "error", err)
		}
	}
}

// AddToggleHandlers binds the open button, the close button and the
// overlay to ToggleWindow.
func (v *AddRecipeView) AddToggleHandlers(bus *event.Bus) {
	toggle := func(context.Context, event.Event) { v.ToggleWindow() }
	bus.On(OpenModalSelector, event.Click, toggle)
	bus.On(CloseModalSelector, event.Click, toggle)
	bus.On(v.overlay.Selector(), event.Click, toggle)
}

// AddUploadHandler calls fn with the submitted form fields.
func (v *AddRecipeView) AddUploadHandler(bus *event.Bus, fn func(ctx context.Context, form map[string]string)) {
	bus.On(v.Mount().Selector(), event.Submit, func(ctx context.Context, ev event.Event) {
		fn(ctx, ev.Form)
	})
}
