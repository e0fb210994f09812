package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"folio/internal/codec"
	"folio/internal/search"
	"folio/internal/store"
)

// PostLookup resolves published posts by slug.
type PostLookup interface {
	GetPublishedPostBySlug(ctx context.Context, slug string) (store.Post, error)
}

type Handlers struct {
	search search.Searcher
	posts  PostLookup
	codec  *codec.Codec
}

func NewHandlers(s search.Searcher, posts PostLookup, c *codec.Codec) *Handlers {
	return &Handlers{search: s, posts: posts, codec: c}
}

type SearchRequest struct {
	Query string `json:"query"`
}

type GetRequest struct {
	ID string `json:"id"`
}

type MarkdownRequest struct {
	Slug string `json:"slug"`
}

type ExcerptRequest struct {
	Content string `json:"content"`
}

type SearchOutput struct {
	Items []search.Candidate `json:"items"`
}

type MarkdownOutput struct {
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
}

type ExcerptOutput struct {
	Excerpt *string `json:"excerpt"`
}

func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult("INVALID_REQUEST", err.Error()), nil
	}
	items, err := h.search.Search(ctx, input.Query)
	if err != nil {
		log.Printf("mcp: search %q: %v", input.Query, err)
		items = nil
	}
	if items == nil {
		items = []search.Candidate{}
	}
	return successResult(SearchOutput{Items: items})
}

func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GetRequest](req)
	if err != nil {
		return errorResult("INVALID_REQUEST", err.Error()), nil
	}
	if strings.TrimSpace(input.ID) == "" {
		return errorResult("INVALID_REQUEST", "id is required"), nil
	}
	c, err := h.search.GetByID(ctx, input.ID)
	if err != nil {
		return lookupError(err), nil
	}
	return successResult(c)
}

func (h *Handlers) HandleMarkdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[MarkdownRequest](req)
	if err != nil {
		return errorResult("INVALID_REQUEST", err.Error()), nil
	}
	if strings.TrimSpace(input.Slug) == "" {
		return errorResult("INVALID_REQUEST", "slug is required"), nil
	}
	p, err := h.posts.GetPublishedPostBySlug(ctx, input.Slug)
	if err != nil {
		return lookupError(err), nil
	}
	doc, _ := h.codec.Deserialize(p.Content)
	md, err := codec.Markdown(doc)
	if err != nil {
		log.Printf("mcp: markdown %s: %v", p.ID, err)
		return errorResult("INTERNAL", "could not convert post"), nil
	}
	return successResult(MarkdownOutput{Slug: p.Slug, Title: p.Title, Markdown: md})
}

// HandleExcerpt accepts the content either as JSON text or as a bare legacy
// string.
func (h *Handlers) HandleExcerpt(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExcerptRequest](req)
	if err != nil {
		return errorResult("INVALID_REQUEST", err.Error()), nil
	}
	raw := []byte(input.Content)
	if !json.Valid(raw) {
		raw, _ = json.Marshal(input.Content)
	}
	out := ExcerptOutput{}
	if excerpt, ok := codec.DeriveExcerpt(raw); ok {
		out.Excerpt = &excerpt
	}
	return successResult(out)
}

func lookupError(err error) *mcp.CallToolResult {
	if errors.Is(err, search.ErrNotFound) || errors.Is(err, store.ErrNotFound) {
		return errorResult("NOT_FOUND", "article not found or not published")
	}
	log.Printf("mcp: lookup: %v", err)
	return errorResult("INTERNAL", "an internal error occurred")
}

// errorResult reports a tool failure inside the result, never as a
// transport error.
func errorResult(code, message string) *mcp.CallToolResult {
	payload := map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	}
	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
