package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/codec"
	"folio/internal/mention"
	"folio/internal/search"
	"folio/internal/store"
)

type fakeSearcher struct {
	items []search.Candidate
	err   error
}

func (f *fakeSearcher) Search(_ context.Context, query string) ([]search.Candidate, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []search.Candidate
	for _, c := range f.items {
		if query != "" && strings.Contains(strings.ToLower(c.Title), strings.ToLower(query)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeSearcher) GetByID(_ context.Context, id string) (search.Candidate, error) {
	for _, c := range f.items {
		if c.ID == id {
			return c, nil
		}
	}
	return search.Candidate{}, search.ErrNotFound
}

type fakePosts map[string]store.Post

func (f fakePosts) GetPublishedPostBySlug(_ context.Context, slug string) (store.Post, error) {
	p, ok := f[slug]
	if !ok {
		return store.Post{}, store.ErrNotFound
	}
	return p, nil
}

func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, r.Content)
	text, ok := r.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", r.Content[0])
	return text.Text
}

func errorCode(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	require.True(t, r.IsError)
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, r)), &payload))
	return payload.Error.Code
}

func newHandlers() *Handlers {
	searcher := &fakeSearcher{items: []search.Candidate{
		{ID: "a1", Title: "Go tips", Slug: "go-tips", Category: "general"},
		{ID: "b2", Title: "Rust notes", Slug: "rust-notes", Category: "thoughts"},
	}}
	posts := fakePosts{
		"go-tips": {ID: "a1", Title: "Go tips", Slug: "go-tips", Content: json.RawMessage(`"<h1>Tips</h1><p>use <strong>gofmt</strong></p>"`)},
	}
	return NewHandlers(searcher, posts, codec.New(mention.MustSchema()))
}

func TestToolNames(t *testing.T) {
	names := ToolNames()
	sort.Strings(names)
	assert.Equal(t, []string{"article_get", "article_search", "content_excerpt", "post_markdown"}, names)
	assert.NotNil(t, NewServer(newHandlers(), "test"))
}

func TestHandleSearch(t *testing.T) {
	h := newHandlers()
	result, err := h.HandleSearch(context.Background(), makeRequest(map[string]any{"query": "go"}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var out SearchOutput
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))
	require.Len(t, out.Items, 1)
	assert.Equal(t, "a1", out.Items[0].ID)

	result, err = h.HandleSearch(context.Background(), makeRequest(map[string]any{"query": "zzz"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[]}`, resultText(t, result))
}

func TestHandleSearchDegradesOnFailure(t *testing.T) {
	h := NewHandlers(&fakeSearcher{err: errors.New("index down")}, fakePosts{}, codec.New(mention.MustSchema()))
	result, err := h.HandleSearch(context.Background(), makeRequest(map[string]any{"query": "go"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.JSONEq(t, `{"items":[]}`, resultText(t, result))
}

func TestHandleSearchRejectsBadArguments(t *testing.T) {
	h := newHandlers()
	result, err := h.HandleSearch(context.Background(), makeRequest(map[string]any{"query": 42}))
	require.NoError(t, err)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, result))
}

func TestHandleGet(t *testing.T) {
	h := newHandlers()
	result, err := h.HandleGet(context.Background(), makeRequest(map[string]any{"id": "b2"}))
	require.NoError(t, err)
	var c search.Candidate
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &c))
	assert.Equal(t, "Rust notes", c.Title)

	result, err = h.HandleGet(context.Background(), makeRequest(map[string]any{"id": "missing"}))
	require.NoError(t, err)
	assert.Equal(t, "NOT_FOUND", errorCode(t, result))

	result, err = h.HandleGet(context.Background(), makeRequest(map[string]any{}))
	require.NoError(t, err)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, result))
}

func TestHandleMarkdown(t *testing.T) {
	h := newHandlers()
	result, err := h.HandleMarkdown(context.Background(), makeRequest(map[string]any{"slug": "go-tips"}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var out MarkdownOutput
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))
	assert.Equal(t, "Go tips", out.Title)
	assert.Contains(t, out.Markdown, "# Tips")
	assert.Contains(t, out.Markdown, "**gofmt**")

	result, err = h.HandleMarkdown(context.Background(), makeRequest(map[string]any{"slug": "draft"}))
	require.NoError(t, err)
	assert.Equal(t, "NOT_FOUND", errorCode(t, result))
}

func TestHandleExcerpt(t *testing.T) {
	h := newHandlers()
	tests := []struct {
		name    string
		content string
		want    string
		empty   bool
	}{
		{name: "html json string", content: `"<p>Hello <em>world</em></p>"`, want: "Hello world"},
		{name: "legacy text", content: "just words", want: "just words"},
		{name: "text object", content: `{"text":"  spaced   out  "}`, want: "spaced out"},
		{name: "null", content: "null", empty: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleExcerpt(context.Background(), makeRequest(map[string]any{"content": tt.content}))
			require.NoError(t, err)
			var out ExcerptOutput
			require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))
			if tt.empty {
				assert.Nil(t, out.Excerpt)
				return
			}
			require.NotNil(t, out.Excerpt)
			assert.Equal(t, tt.want, *out.Excerpt)
		})
	}
}
