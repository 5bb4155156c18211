// CLAUDE:SUMMARY Live session — one page tree, views, model and controller per browser tab, driven by a single event loop.
// Package live serves the recipe app as a server-driven page. Each browser
// tab gets a Session holding its own page tree. Events from the tab are
// run one at a time on the session loop; the mutations views apply are
// streamed back as numbered batches the client replays.
package live

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/hazyhaar/larder/controller"
	"github.com/hazyhaar/larder/dom"
	"github.com/hazyhaar/larder/event"
	"github.com/hazyhaar/larder/model"
	"github.com/hazyhaar/larder/mutation"
	"github.com/hazyhaar/larder/sink"
	"github.com/hazyhaar/larder/view"
)

var (
	// ErrSessionNotFound is returned for unknown or reaped session ids.
	ErrSessionNotFound = errors.New("live: session not found")
	// ErrSessionClosed is returned when work is submitted to a closed session.
	ErrSessionClosed = errors.New("live: session closed")
)

// Config is shared by every session of a Manager.
type Config struct {
	Backend         model.Backend
	Bookmarks       model.BookmarkStore
	Reconciler      *dom.Reconciler
	Icons           string
	ResultsPerPage  int
	ModalCloseAfter time.Duration
	Idle            time.Duration // sessions unused this long are reaped
	BufferSize      int           // pending batches kept for polling clients
	WriteTimeout    time.Duration // websocket writes
	Logger          *slog.Logger

	// Trace, when set, receives every batch of every session as JSON lines.
	Trace io.Writer
	// OnBatch, when set, is called with every published batch.
	OnBatch sink.BatchFunc

	trace sink.Sink // shared Stdout over Trace, built by defaults
}

func (c *Config) defaults() {
	if c.Icons == "" {
		c.Icons = view.DefaultIconsURL
	}
	if c.ResultsPerPage <= 0 {
		c.ResultsPerPage = model.DefaultResultsPerPage
	}
	if c.ModalCloseAfter <= 0 {
		c.ModalCloseAfter = controller.DefaultModalCloseAfter
	}
	if c.Idle <= 0 {
		c.Idle = 30 * time.Minute
	}
	if c.BufferSize <= 0 {
		c.BufferSize = 256
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Reconciler == nil {
		c.Reconciler = dom.NewReconciler(dom.WithLogger(c.Logger))
	}
	if c.Trace != nil && c.trace == nil {
		c.trace = sink.NewStdout(c.Trace)
	}
}

type task struct {
	fn   func(ctx context.Context)
	done chan struct{}
}

// Session is one browser tab.
type Session struct {
	id     string
	doc    *dom.Document
	bus    *event.Bus
	model  *model.Model
	views  controller.Views
	router *sink.Router
	buffer *sink.Buffer
	logger *slog.Logger

	seq      atomic.Uint64
	lastSeen atomic.Int64
	hash     string // loop only

	tasks  chan task
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	socket sink.Sink
	timers map[*time.Timer]struct{} // pending only
}

// NewSession builds the page, views, model and controller for one tab and
// starts its loop. cfg must have its defaults applied.
func NewSession(id string, cfg Config) (*Session, error) {
	doc, err := parsePage()
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger.With("session", id)
	s := &Session{
		id:     id,
		doc:    doc,
		bus:    event.NewBus(logger),
		buffer: sink.NewBuffer(cfg.BufferSize),
		logger: logger,
		tasks:  make(chan task),
		done:   make(chan struct{}),
	}
	s.router = sink.NewRouter(logger, s.buffer)
	if cfg.trace != nil {
		s.router.Attach(cfg.trace)
	}
	if cfg.OnBatch != nil {
		s.router.Attach(sink.NewCallback(cfg.OnBatch))
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.touch()

	if err := s.buildViews(cfg); err != nil {
		s.cancel()
		return nil, err
	}
	s.model = model.New(cfg.Backend, cfg.Bookmarks,
		model.WithLogger(logger), model.WithResultsPerPage(cfg.ResultsPerPage))
	if err := s.model.Init(s.ctx); err != nil {
		s.cancel()
		return nil, fmt.Errorf("live: session %s: %w", id, err)
	}
	ctrl := controller.New(s.model, s.views, s, s,
		controller.WithLogger(logger), controller.WithModalCloseAfter(cfg.ModalCloseAfter))
	ctrl.Init(s.bus)

	go s.run()
	logger.Info("live: session started")
	return s, nil
}

func (s *Session) buildViews(cfg Config) error {
	mounts := make(map[string]*dom.Mount)
	for _, sel := range []string{
		view.RecipeSelector, view.ResultsSelector, view.BookmarksSelector, view.PaginationSelector,
		view.SearchSelector, view.UploadSelector, view.WindowSelector, view.OverlaySelector,
	} {
		m, err := s.doc.Mount(sel)
		if err != nil {
			return fmt.Errorf("live: page: %w", err)
		}
		mounts[sel] = m
	}

	opts := []view.Option{
		view.WithReconciler(cfg.Reconciler),
		view.WithPublisher(s),
		view.WithIcons(cfg.Icons),
		view.WithLogger(s.logger),
	}
	addRecipe, err := view.NewAddRecipeView(mounts[view.UploadSelector],
		mounts[view.WindowSelector], mounts[view.OverlaySelector], opts...)
	if err != nil {
		return err
	}
	s.views = controller.Views{
		Recipe:     view.NewRecipeView(mounts[view.RecipeSelector], opts...),
		Results:    view.NewResultsView(mounts[view.ResultsSelector], s.Hash, opts...),
		Bookmarks:  view.NewBookmarksView(mounts[view.BookmarksSelector], s.Hash, opts...),
		Pagination: view.NewPaginationView(mounts[view.PaginationSelector], opts...),
		Search:     view.NewSearchView(mounts[view.SearchSelector], s),
		AddRecipe:  addRecipe,
	}
	return nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// LastSeen returns when the session last received work.
func (s *Session) LastSeen() time.Time { return time.UnixMilli(s.lastSeen.Load()) }

func (s *Session) touch() { s.lastSeen.Store(time.Now().UnixMilli()) }

// Connected reports whether a websocket is attached.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.socket != nil
}

func (s *Session) run() {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case t := <-s.tasks:
			s.exec(t)
		}
	}
}

func (s *Session) exec(t task) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("live: handler panic", "panic", r)
		}
		if t.done != nil {
			close(t.done)
		}
	}()
	t.fn(s.ctx)
}

// Do runs fn on the session loop and waits for it to finish.
func (s *Session) Do(ctx context.Context, fn func(ctx context.Context)) error {
	s.touch()
	t := task{fn: fn, done: make(chan struct{})}
	select {
	case s.tasks <- t:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ctx.Done():
		return ErrSessionClosed
	}
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ctx.Done():
		return ErrSessionClosed
	}
}

// Post queues fn on the session loop without waiting.
func (s *Session) Post(fn func(ctx context.Context)) {
	go func() {
		select {
		case s.tasks <- task{fn: fn}:
		case <-s.ctx.Done():
		}
	}()
}

// AfterFunc runs fn on the session loop after d.
func (s *Session) AfterFunc(d time.Duration, fn func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return
	}
	if s.timers == nil {
		s.timers = make(map[*time.Timer]struct{})
	}
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		s.mu.Lock()
		delete(s.timers, t)
		s.mu.Unlock()
		s.Post(fn)
	})
	s.timers[t] = struct{}{}
}

// Dispatch runs ev through the session's handlers. Window events carry
// the location hash, which becomes the session's current hash.
func (s *Session) Dispatch(ctx context.Context, ev event.Event) error {
	var err error
	if derr := s.Do(ctx, func(ctx context.Context) {
		if ev.Mount == event.Window {
			ev.Hash = strings.TrimPrefix(ev.Hash, "#")
			s.hash = ev.Hash
		}
		err = s.bus.Dispatch(ctx, ev)
	}); derr != nil {
		return derr
	}
	return err
}

// Hash returns the current location hash. Loop only.
func (s *Session) Hash() string { return s.hash }

// PushHash changes the location hash without a hashchange event. Loop only.
func (s *Session) PushHash(id string) {
	s.hash = id
	s.Publish(event.Window, []mutation.Record{{Op: mutation.OpLocation, Index: mutation.RootIndex, Value: id}})
}

// Publish numbers recs as the next batch and sends it to the attached sinks.
func (s *Session) Publish(mount string, recs []mutation.Record) {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	b := mutation.Batch{
		ID:        id.String(),
		Session:   s.id,
		Mount:     mount,
		Seq:       s.seq.Add(1),
		Records:   recs,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := s.router.Send(s.ctx, b); err != nil {
		s.logger.Warn("live: publish", "mount", mount, "seq", b.Seq, "error", err)
	}
}

// Drain returns the batches queued for a polling client.
func (s *Session) Drain() []mutation.Batch { return s.buffer.Drain() }

// RenderPage writes the current page, with boot data, to w. Batches queued
// so far are part of the page and are dropped.
func (s *Session) RenderPage(ctx context.Context, w io.Writer) error {
	var buf bytes.Buffer
	var err error
	if derr := s.Do(ctx, func(context.Context) {
		s.buffer.Drain()
		err = writeBoot(s.doc, boot{Session: s.id, Seq: s.seq.Load(), Bindings: s.bus.Bindings()})
		if err == nil {
			err = s.doc.Render(&buf)
		}
	}); derr != nil {
		return derr
	}
	if err != nil {
		return fmt.Errorf("live: render page: %w", err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// Attach makes ws the session's output. Batches queued since the page was
// served are flushed to it first. A previous socket is closed.
func (s *Session) Attach(ctx context.Context, ws sink.Sink) error {
	return s.Do(ctx, func(ctx context.Context) {
		for _, b := range s.buffer.Drain() {
			if err := ws.Send(ctx, b); err != nil {
				s.logger.Warn("live: flush to socket", "seq", b.Seq, "error", err)
			}
		}
		s.mu.Lock()
		old := s.socket
		s.socket = ws
		s.mu.Unlock()
		if old != nil {
			s.router.Detach(old)
			old.Close()
		}
		s.router.Detach(s.buffer)
		s.router.Attach(ws)
	})
}

// Detach removes ws and returns output to the polling buffer.
func (s *Session) Detach(ws sink.Sink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.socket != ws {
		return
	}
	s.socket = nil
	s.router.Detach(ws)
	s.router.Attach(s.buffer)
	s.touch()
}

// Close stops the loop and timers and closes attached sinks.
func (s *Session) Close() error {
	s.mu.Lock()
	for t := range s.timers {
		t.Stop()
	}
	s.timers = nil
	s.socket = nil
	s.mu.Unlock()

	s.cancel()
	<-s.done
	s.logger.Info("live: session closed")
	return s.router.Close()
}
