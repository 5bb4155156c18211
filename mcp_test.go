package larder

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/larder/model"
)

var testMCPImpl = &mcp.Implementation{Name: "larder-test", Version: "0.1.0"}

func mcpSession(t *testing.T, app *App) *mcp.ClientSession {
	t.Helper()
	srv := app.MCPServer()
	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func mcpCall(t *testing.T, session *mcp.ClientSession, name string, args any) (string, error) {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent", name)
	}
	if result.IsError {
		return tc.Text, errors.New(tc.Text)
	}
	return tc.Text, nil
}

func TestMCP_Search(t *testing.T) {
	app, _ := testApp(t)
	session := mcpSession(t, app)

	text, err := mcpCall(t, session, "larder_search", map[string]any{"query": "soup", "page": 2})
	if err != nil {
		t.Fatal(err)
	}
	var resp searchResp
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Page != 2 || resp.Pages != 2 || resp.Total != 12 {
		t.Errorf("paging: got page %d of %d, total %d", resp.Page, resp.Pages, resp.Total)
	}
	if len(resp.Results) != 2 || resp.Results[0].ID != "r10" {
		t.Errorf("results: got %+v", resp.Results)
	}
}

func TestMCP_SearchRequiresQuery(t *testing.T) {
	app, _ := testApp(t)
	session := mcpSession(t, app)
	if _, err := mcpCall(t, session, "larder_search", map[string]any{}); err == nil {
		t.Fatal("expected tool error")
	}
}

func TestMCP_Recipe(t *testing.T) {
	app, _ := testApp(t)
	ctx := context.Background()
	if err := app.store.PutBookmark(ctx, &model.Recipe{ID: "pizza1", Title: "Pizza Margherita", Servings: 4}); err != nil {
		t.Fatal(err)
	}
	session := mcpSession(t, app)

	text, err := mcpCall(t, session, "larder_recipe", map[string]any{"id": "pizza1"})
	if err != nil {
		t.Fatal(err)
	}
	var r model.Recipe
	if err := json.Unmarshal([]byte(text), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.Title != "Pizza Margherita" || !r.Bookmarked {
		t.Errorf("recipe: got title %q bookmarked %v", r.Title, r.Bookmarked)
	}

	md, err := mcpCall(t, session, "larder_recipe", map[string]any{"id": "pizza1", "format": "markdown"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(md, "flour") {
		t.Errorf("markdown: got %q", md)
	}

	if _, err := mcpCall(t, session, "larder_recipe", map[string]any{"id": "pizza1", "format": "pdf"}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestMCP_Bookmarks(t *testing.T) {
	app, _ := testApp(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b"} {
		if err := app.store.PutBookmark(ctx, &model.Recipe{ID: id, Title: "T " + id, Servings: 1}); err != nil {
			t.Fatal(err)
		}
	}
	session := mcpSession(t, app)

	text, err := mcpCall(t, session, "larder_bookmarks", map[string]any{})
	if err != nil {
		t.Fatal(err)
	}
	var resp struct {
		Bookmarks []model.SearchResult `json:"bookmarks"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Bookmarks) != 2 || resp.Bookmarks[0].ID != "a" || resp.Bookmarks[1].ID != "b" {
		t.Errorf("bookmarks: got %+v", resp.Bookmarks)
	}
}
