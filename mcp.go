package larder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/larder/model"
)

// MCPServer returns a new MCP server with the larder tools registered.
func (a *App) MCPServer() *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: "larder", Version: Version}, nil)
	a.RegisterMCP(srv)
	return srv
}

// RegisterMCP registers the larder tools on srv.
func (a *App) RegisterMCP(srv *mcp.Server) {
	a.registerSearchTool(srv)
	a.registerRecipeTool(srv)
	a.registerBookmarksTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// addTool registers handle under tool. Arguments are decoded into a fresh
// Req; failures become tool errors, results are returned as JSON text.
func addTool[Req any](srv *mcp.Server, tool *mcp.Tool, handle func(context.Context, *Req) (any, error)) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var r Req
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
				var res mcp.CallToolResult
				res.SetError(fmt.Errorf("invalid arguments: %w", err))
				return &res, nil
			}
		}
		resp, err := handle(ctx, &r)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(err)
			return &res, nil
		}
		text, ok := resp.(string)
		if !ok {
			data, err := json.Marshal(resp)
			if err != nil {
				var res mcp.CallToolResult
				res.SetError(fmt.Errorf("marshal: %w", err))
				return &res, nil
			}
			text = string(data)
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
		}, nil
	})
}

// --- search ---

type searchReq struct {
	Query string `json:"query"`
	Page  int    `json:"page"`
}

type searchResp struct {
	Query   string               `json:"query"`
	Page    int                  `json:"page"`
	Pages   int                  `json:"pages"`
	Total   int                  `json:"total"`
	Results []model.SearchResult `json:"results"`
}

func (a *App) registerSearchTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "larder_search",
		Description: "Search recipes by ingredient or dish name. Results are paginated like the web app.",
		InputSchema: inputSchema(map[string]any{
			"query": map[string]any{"type": "string", "description": "Search terms, e.g. pizza"},
			"page":  map[string]any{"type": "integer", "description": "Page number, 1-based (default 1)"},
		}, []string{"query"}),
	}
	addTool(srv, tool, func(ctx context.Context, r *searchReq) (any, error) {
		if r.Query == "" {
			return nil, errors.New("query is required")
		}
		m := model.New(a.backend, a.store, model.WithLogger(a.logger), model.WithResultsPerPage(a.cfg.ResultsPerPage))
		if err := m.LoadSearchResults(ctx, r.Query); err != nil {
			return nil, err
		}
		page := m.SearchResultsPage(max(r.Page, 1))
		s := m.State().Search
		return searchResp{
			Query:   s.Query,
			Page:    s.Page,
			Pages:   s.NumPages(),
			Total:   len(s.Results),
			Results: page,
		}, nil
	})
}

// --- recipe ---

type recipeReq struct {
	ID     string `json:"id"`
	Format string `json:"format"`
}

func (a *App) registerRecipeTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "larder_recipe",
		Description: "Fetch one recipe by id, as JSON or as Markdown.",
		InputSchema: inputSchema(map[string]any{
			"id":     map[string]any{"type": "string", "description": "Recipe id"},
			"format": map[string]any{"type": "string", "enum": []string{"json", "markdown"}, "description": "Output format (default json)"},
		}, []string{"id"}),
	}
	addTool(srv, tool, func(ctx context.Context, r *recipeReq) (any, error) {
		if r.ID == "" {
			return nil, errors.New("id is required")
		}
		switch r.Format {
		case "", "json":
			m := model.New(a.backend, a.store, model.WithLogger(a.logger))
			if err := m.Init(ctx); err != nil {
				return nil, err
			}
			if err := m.LoadRecipe(ctx, r.ID); err != nil {
				return nil, err
			}
			return m.State().Recipe, nil
		case "markdown", "md":
			return a.RecipeMarkdown(ctx, r.ID)
		}
		return nil, fmt.Errorf("unknown format %q", r.Format)
	})
}

// --- bookmarks ---

func (a *App) registerBookmarksTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "larder_bookmarks",
		Description: "List bookmarked recipes, oldest first.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	addTool(srv, tool, func(ctx context.Context, _ *struct{}) (any, error) {
		bs, err := a.store.ListBookmarks(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]model.SearchResult, len(bs))
		for i, b := range bs {
			out[i] = b.Summary()
		}
		return map[string]any{"bookmarks": out}, nil
	})
}
