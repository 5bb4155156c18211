package live

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/hazyhaar/larder/event"
	"github.com/hazyhaar/larder/internal/store"
	"github.com/hazyhaar/larder/model"
	"github.com/hazyhaar/larder/mutation"
	"github.com/hazyhaar/larder/view"
)

type fakeBackend struct{}

func (fakeBackend) GetRecipe(_ context.Context, id string) (*model.Recipe, error) {
	return &model.Recipe{ID: id, Title: "Dish " + id, Servings: 2, CookingTime: 10}, nil
}

func (fakeBackend) SearchRecipes(context.Context, string) ([]model.SearchResult, error) {
	out := make([]model.SearchResult, 12)
	for i := range out {
		out[i] = model.SearchResult{ID: fmt.Sprintf("r%d", i), Title: fmt.Sprintf("Dish %d", i)}
	}
	return out, nil
}

func (fakeBackend) CreateRecipe(_ context.Context, r *model.Recipe) (*model.Recipe, error) {
	cp := *r
	cp.ID = "new"
	return &cp, nil
}

func testManager(t *testing.T, mutate ...func(*Config)) *Manager {
	t.Helper()
	cfg := Config{
		Backend:   fakeBackend{},
		Bookmarks: store.OpenMemory(t),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, fn := range mutate {
		fn(&cfg)
	}
	m := NewManager(cfg)
	t.Cleanup(func() { m.Close() })
	return m
}

func search(query string) event.Event {
	return event.Event{Type: event.Submit, Mount: view.SearchSelector, Target: mutation.RootIndex, Form: map[string]string{"query": query}}
}

func TestSession_DispatchProducesOrderedBatches(t *testing.T) {
	m := testManager(t)
	s, err := m.Create()
	if err != nil {
		t.Fatal(err)
	}
	var page bytes.Buffer
	if err := s.RenderPage(context.Background(), &page); err != nil {
		t.Fatal(err)
	}

	if err := s.Dispatch(context.Background(), search("pasta")); err != nil {
		t.Fatal(err)
	}
	batches := s.Drain()
	var mounts []string
	for i, b := range batches {
		mounts = append(mounts, b.Mount)
		if b.Session != s.ID() || b.ID == "" {
			t.Errorf("batch %d: session %q id %q", i, b.Session, b.ID)
		}
		if i > 0 && b.Seq != batches[i-1].Seq+1 {
			t.Errorf("batch %d: seq %d after %d", i, b.Seq, batches[i-1].Seq)
		}
	}
	want := []string{view.SearchSelector, view.ResultsSelector, view.ResultsSelector, view.PaginationSelector}
	if strings.Join(mounts, " ") != strings.Join(want, " ") {
		t.Errorf("mounts: got %v, want %v", mounts, want)
	}
	if got := batches[0].Records[0].Op; got != mutation.OpValue {
		t.Errorf("first record: got %s, want value", got)
	}
}

func TestSession_TraceAndCallback(t *testing.T) {
	var trace bytes.Buffer
	var seen []uint64
	m := testManager(t, func(c *Config) {
		c.Trace = &trace
		c.OnBatch = func(_ context.Context, b mutation.Batch) error {
			seen = append(seen, b.Seq)
			return nil
		}
	})
	s, err := m.Create()
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Dispatch(context.Background(), search("pasta")); err != nil {
		t.Fatal(err)
	}
	drained := s.Drain()
	if len(seen) != len(drained) {
		t.Fatalf("callback: got %d batches, want %d", len(seen), len(drained))
	}
	lines := strings.Split(strings.TrimSpace(trace.String()), "\n")
	if len(lines) != len(drained) {
		t.Fatalf("trace: got %d lines, want %d", len(lines), len(drained))
	}
	var first struct {
		Type string         `json:"type"`
		Data mutation.Batch `json:"data"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatal(err)
	}
	if first.Type != "batch" || first.Data.Seq != seen[0] {
		t.Errorf("trace line: got %+v", first)
	}
}

func TestSession_HashChangeTracksLocation(t *testing.T) {
	m := testManager(t)
	s, err := m.Create()
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Dispatch(context.Background(), event.Event{Type: event.HashChange, Mount: event.Window, Hash: "#r3"}); err != nil {
		t.Fatal(err)
	}
	var hash string
	if err := s.Do(context.Background(), func(context.Context) { hash = s.Hash() }); err != nil {
		t.Fatal(err)
	}
	if hash != "r3" {
		t.Errorf("hash: got %q, want %q", hash, "r3")
	}
	batches := s.Drain()
	last := batches[len(batches)-1]
	if last.Mount != view.RecipeSelector || last.Records[0].Op != mutation.OpReplace || !strings.Contains(last.Records[0].HTML, "Dish r3") {
		t.Errorf("last batch: got %+v", last)
	}
}

func TestSession_ModalClosesOnLoop(t *testing.T) {
	m := testManager(t, func(c *Config) { c.ModalCloseAfter = 10 * time.Millisecond })
	s, err := m.Create()
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := s.Dispatch(ctx, event.Event{Type: event.Click, Mount: view.OpenModalSelector, Target: mutation.RootIndex}); err != nil {
		t.Fatal(err)
	}
	form := map[string]string{
		"title": "Toast", "sourceUrl": "https://x/t", "image": "https://x/t.jpg",
		"publisher": "Me", "cookingTime": "5", "servings": "1",
	}
	if err := s.Dispatch(ctx, event.Event{Type: event.Submit, Mount: view.UploadSelector, Form: form}); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		var open bool
		if err := s.Do(ctx, func(context.Context) { open = s.views.AddRecipe.Open() }); err != nil {
			t.Fatal(err)
		}
		if !open {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("modal still open")
		}
		time.Sleep(5 * time.Millisecond)
	}

	var sawLocation bool
	for _, b := range s.Drain() {
		for _, r := range b.Records {
			if r.Op == mutation.OpLocation && r.Value == "new" {
				sawLocation = true
			}
		}
	}
	if !sawLocation {
		t.Error("no location record for the uploaded recipe")
	}
}

func TestSession_FiredTimersAreDropped(t *testing.T) {
	m := testManager(t)
	s, err := m.Create()
	if err != nil {
		t.Fatal(err)
	}
	fired := make(chan struct{}, 5)
	for range 5 {
		s.AfterFunc(time.Millisecond, func(context.Context) { fired <- struct{}{} })
	}
	for range 5 {
		select {
		case <-fired:
		case <-time.After(2 * time.Second):
			t.Fatal("timer did not fire")
		}
	}
	s.mu.Lock()
	pending := len(s.timers)
	s.mu.Unlock()
	if pending != 0 {
		t.Errorf("pending timers: got %d, want 0", pending)
	}
}

func TestManager_GetAndReap(t *testing.T) {
	m := testManager(t, func(c *Config) { c.Idle = time.Minute })
	s, err := m.Create()
	if err != nil {
		t.Fatal(err)
	}
	if got, err := m.Get(s.ID()); err != nil || got != s {
		t.Fatalf("Get: got %v, %v", got, err)
	}
	if _, err := m.Get("nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get unknown: got %v, want ErrSessionNotFound", err)
	}

	if n := m.Reap(time.Now()); n != 0 {
		t.Errorf("fresh reap: got %d, want 0", n)
	}
	if n := m.Reap(time.Now().Add(2 * time.Minute)); n != 1 {
		t.Errorf("idle reap: got %d, want 1", n)
	}
	if m.Len() != 0 {
		t.Errorf("Len: got %d, want 0", m.Len())
	}
	if err := s.Dispatch(context.Background(), search("x")); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("dispatch after reap: got %v, want ErrSessionClosed", err)
	}
}

var bootRe = regexp.MustCompile(`<script id="larder-boot" type="application/json">(.*?)</script>`)

func testServer(t *testing.T, m *Manager) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	NewHandler(m, slog.New(slog.NewTextHandler(io.Discard, nil))).Routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func loadPage(t *testing.T, srv *httptest.Server) boot {
	t.Helper()
	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /: status %d", resp.StatusCode)
	}
	if !bytes.Contains(body, []byte(`name="ingredient-6"`)) {
		t.Error("page without the upload form")
	}
	match := bootRe.FindSubmatch(body)
	if match == nil {
		t.Fatalf("no boot data in page")
	}
	var b boot
	if err := json.Unmarshal(match[1], &b); err != nil {
		t.Fatalf("boot: %v", err)
	}
	return b
}

func TestHandler_PageAndEvents(t *testing.T) {
	m := testManager(t)
	srv := testServer(t, m)

	b := loadPage(t, srv)
	if b.Session == "" || len(b.Bindings) == 0 {
		t.Fatalf("boot: got %+v", b)
	}
	found := false
	for _, bd := range b.Bindings {
		if bd.Mount == view.SearchSelector && bd.Type == event.Submit {
			found = true
		}
	}
	if !found {
		t.Errorf("bindings without search submit: %+v", b.Bindings)
	}

	body, _ := json.Marshal(eventRequest{Session: b.Session, Event: search("soup")})
	resp, err := http.Post(srv.URL+"/events", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /events: status %d", resp.StatusCode)
	}
	var batches []mutation.Batch
	if err := json.NewDecoder(resp.Body).Decode(&batches); err != nil {
		t.Fatal(err)
	}
	if len(batches) == 0 || batches[0].Seq <= b.Seq {
		t.Errorf("batches: got %d, first seq must follow boot seq %d", len(batches), b.Seq)
	}
}

func TestHandler_UnknownSession(t *testing.T) {
	srv := testServer(t, testManager(t))
	body, _ := json.Marshal(eventRequest{Session: "gone", Event: search("soup")})
	resp, err := http.Post(srv.URL+"/events", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestHandler_Static(t *testing.T) {
	srv := testServer(t, testManager(t))
	resp, err := http.Get(srv.URL + "/static/client.js")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
}

func TestHandler_WebSocket(t *testing.T) {
	m := testManager(t)
	srv := testServer(t, m)
	b := loadPage(t, srv)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?session=" + b.Session
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(search("soup")); err != nil {
		t.Fatal(err)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg struct {
		Type string         `json:"type"`
		Data mutation.Batch `json:"data"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "batch" || msg.Data.Session != b.Session {
		t.Errorf("message: got %+v", msg)
	}

	s, err := m.Get(b.Session)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Connected() {
		t.Error("session not connected")
	}
}
