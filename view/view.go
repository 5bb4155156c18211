// CLAUDE:SUMMARY Generic View — render (full replace), update (reconciled patch), spinner/error/message states, one batch per call.
// Package view binds a markup generator to a mount and publishes every
// mutation it applies.
package view

import (
	"errors"
	"fmt"
	"html"
	"log/slog"
	"reflect"

	"github.com/hazyhaar/larder/dom"
	"github.com/hazyhaar/larder/mutation"
)

// ErrNotRendered is returned by Update when the mount has no content yet.
// Call Render first.
var ErrNotRendered = errors.New("view: update before render")

// DefaultIconsURL is the sprite sheet referenced by the fixed templates.
const DefaultIconsURL = "/static/icons.svg"

// Generator maps data to the markup that should occupy the mount. It must
// be pure and deterministic.
type Generator[T any] func(T) (string, error)

// Publisher receives the records of every applied mutation, one call per
// view operation.
type Publisher interface {
	Publish(mount string, recs []mutation.Record)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(mount string, recs []mutation.Record)

// Publish calls f.
func (f PublisherFunc) Publish(mount string, recs []mutation.Record) { f(mount, recs) }

// Emptier is implemented by data types that know when they hold nothing
// worth rendering.
type Emptier interface {
	Empty() bool
}

type options struct {
	reconciler   *dom.Reconciler
	publisher    Publisher
	errorMessage string
	message      string
	icons        string
	logger       *slog.Logger
}

// Option configures a View.
type Option func(*options)

// WithReconciler sets the reconciler. Default: dom.NewReconciler().
func WithReconciler(r *dom.Reconciler) Option {
	return func(o *options) { o.reconciler = r }
}

// WithPublisher sets where mutation records go. Default: discarded.
func WithPublisher(p Publisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithErrorMessage sets the message RenderError shows by default.
func WithErrorMessage(msg string) Option {
	return func(o *options) { o.errorMessage = msg }
}

// WithMessage sets the message RenderMessage shows by default.
func WithMessage(msg string) Option {
	return func(o *options) { o.message = msg }
}

// WithIcons sets the icon sprite URL.
func WithIcons(url string) Option {
	return func(o *options) { o.icons = url }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// View owns one mount and renders T into it.
type View[T any] struct {
	mount    *dom.Mount
	generate Generator[T]
	data     T
	opts     options
}

// New creates a View over mount. The mount must stay valid for the life of
// the view.
func New[T any](mount *dom.Mount, gen Generator[T], opts ...Option) *View[T] {
	o := options{
		errorMessage: "Something went wrong. Please try again.",
		icons:        DefaultIconsURL,
	}
	for _, fn := range opts {
		fn(&o)
	}
	if o.reconciler == nil {
		o.reconciler = dom.NewReconciler(dom.WithLogger(o.logger))
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return &View[T]{mount: mount, generate: gen, opts: o}
}

// Mount returns the mount the view renders into.
func (v *View[T]) Mount() *dom.Mount { return v.mount }

// Data returns the value last given to Render or Update.
func (v *View[T]) Data() T { return v.data }

// Icons returns the icon sprite URL.
func (v *View[T]) Icons() string { return v.opts.icons }

// Render replaces the mount content with the markup for data. Absent or
// empty data renders the default error instead and the generator is not
// called.
func (v *View[T]) Render(data T) error {
	if absent(data) {
		v.RenderError("")
		return nil
	}
	markup, err := v.Markup(data)
	if err != nil {
		return err
	}
	p, err := v.opts.reconciler.Render(v.mount, markup)
	if err != nil {
		return fmt.Errorf("view: render %s: %w", v.mount.Selector(), err)
	}
	v.publish(p.Records)
	return nil
}

// Markup stores data and returns its markup without touching the mount.
// Lists of previews use it to embed one view's markup in another.
func (v *View[T]) Markup(data T) (string, error) {
	v.data = data
	markup, err := v.generate(data)
	if err != nil {
		return "", fmt.Errorf("view: generate %s: %w", v.mount.Selector(), err)
	}
	return markup, nil
}

// Update patches the rendered mount in place to match the markup for data.
func (v *View[T]) Update(data T) error {
	if v.mount.Empty() {
		return fmt.Errorf("%w: %s", ErrNotRendered, v.mount.Selector())
	}
	markup, err := v.Markup(data)
	if err != nil {
		return err
	}
	p, err := v.opts.reconciler.Update(v.mount, markup)
	if err != nil {
		return fmt.Errorf("view: update %s: %w", v.mount.Selector(), err)
	}
	if len(p.Records) > 0 {
		v.publish(p.Records)
	}
	return nil
}

// RenderSpinner shows the loading indicator.
func (v *View[T]) RenderSpinner() {
	v.replace(fmt.Sprintf(`<div class="spinner"><svg><use href="%s#icon-loader"></use></svg></div>`,
		html.EscapeString(v.opts.icons)))
}

// RenderError shows msg, or the view's default error message when msg is "".
func (v *View[T]) RenderError(msg string) {
	if msg == "" {
		msg = v.opts.errorMessage
	}
	v.replace(v.notice("error", "icon-alert-triangle", msg))
}

// RenderMessage shows msg, or the view's default message when msg is "".
func (v *View[T]) RenderMessage(msg string) {
	if msg == "" {
		msg = v.opts.message
	}
	v.replace(v.notice("message", "icon-smile", msg))
}

func (v *View[T]) notice(class, icon, msg string) string {
	return fmt.Sprintf(`<div class="%s"><div><svg><use href="%s#%s"></use></svg></div><p>%s</p></div>`,
		class, html.EscapeString(v.opts.icons), icon, html.EscapeString(msg))
}

// replace performs a full render of fixed markup. Failures are logged: the
// auxiliary states have nowhere else to report to.
func (v *View[T]) replace(markup string) {
	p, err := v.opts.reconciler.Render(v.mount, markup)
	if err != nil {
		v.opts.logger.Error("view: render state", "mount", v.mount.Selector(), "error", err)
		return
	}
	v.publish(p.Records)
}

func (v *View[T]) publish(recs []mutation.Record) {
	if v.opts.publisher != nil {
		v.opts.publisher.Publish(v.mount.Selector(), recs)
	}
}

// absent reports nil pointers, nil interfaces, empty slices and maps, and
// values whose Empty method says so.
func absent(data any) bool {
	if data == nil {
		return true
	}
	if e, ok := data.(Emptier); ok {
		rv := reflect.ValueOf(data)
		if rv.Kind() == reflect.Pointer && rv.IsNil() {
			return true
		}
		return e.Empty()
	}
	rv := reflect.ValueOf(data)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	}
	return false
}
