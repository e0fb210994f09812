package mention

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"folio/internal/content"
	"folio/internal/editor"
	"folio/internal/search"
)

var goAttrs = Attrs{ID: "a1", Label: "Go & Rust", Slug: "go-rust", Category: "thoughts"}

func TestNewOmitsEmptyAttrs(t *testing.T) {
	n := New(Attrs{ID: "x"})
	assert.Equal(t, map[string]any{"id": "x"}, n.Attrs)
	assert.Equal(t, Attrs{ID: "x"}, AttrsOf(n))
	assert.Equal(t, "@x", RenderText(n))
	assert.Equal(t, "@Go & Rust", RenderText(New(goAttrs)))
	assert.True(t, New(goAttrs).IsLeaf())
	assert.Equal(t, 1, New(goAttrs).Size())
}

func TestFromCandidateUsesTitleAsLabel(t *testing.T) {
	a := FromCandidate(search.Candidate{ID: "1", Title: "Fixing DNS", Slug: "fixing-dns", Category: "fixes"})
	assert.Equal(t, Attrs{ID: "1", Label: "Fixing DNS", Slug: "fixing-dns", Category: "fixes"}, a)
}

func TestSchemaAllowsMentionInline(t *testing.T) {
	s := MustSchema()
	assert.True(t, s.Allows(content.TypeParagraph, content.TypeMention))
	assert.True(t, s.Allows(content.TypeHeading, content.TypeMention))
	assert.False(t, s.Allows(content.TypeCodeBlock, content.TypeMention))
	assert.False(t, s.Allows(content.TypeDoc, content.TypeMention))
	assert.False(t, s.Allows(content.TypeMention, content.TypeMention))
}

func TestRenderHTML(t *testing.T) {
	got := RenderHTML(goAttrs)
	assert.Equal(t,
		`<span data-type="articleMention" class="article-mention" data-id="a1" data-label="Go &amp; Rust" data-slug="go-rust" data-category="thoughts">@Go &amp; Rust</span>`,
		got)
	assert.Equal(t, `<span data-type="articleMention" class="article-mention" data-id="z">@z</span>`, RenderHTML(Attrs{ID: "z"}))
}

func findSpan(t *testing.T, markup string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(markup))
	require.NoError(t, err)
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found == nil && n.Type == html.ElementNode && n.Data == "span" {
			found = n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	require.NotNil(t, found)
	return found
}

func TestParseElementRoundTrip(t *testing.T) {
	a, ok := ParseElement(findSpan(t, RenderHTML(goAttrs)))
	require.True(t, ok)
	assert.Equal(t, goAttrs, a)
}

func TestParseElementVariants(t *testing.T) {
	a, ok := ParseElement(findSpan(t, `<span data-type="articleMention" data-id="9" data-categories="fixes">@Old</span>`))
	require.True(t, ok)
	assert.Equal(t, Attrs{ID: "9", Category: "fixes"}, a)

	a, ok = ParseElement(findSpan(t, `<span data-type="articleMention">@Bare title</span>`))
	require.True(t, ok)
	assert.Equal(t, "Bare title", a.Label)

	_, ok = ParseElement(findSpan(t, `<span class="article-mention">@nope</span>`))
	assert.False(t, ok)
}

func newEditor(t *testing.T, doc content.Node, cursor int) *editor.Editor {
	t.Helper()
	ed, err := editor.New(MustSchema(), doc, Keymap{})
	require.NoError(t, err)
	require.NoError(t, ed.SetCursor(cursor))
	return ed
}

func TestBackspaceRevertsMentionToText(t *testing.T) {
	doc := content.Doc(content.Paragraph(content.Text("see "), New(Attrs{ID: "1", Label: "Go"}), content.Text(" ok")))
	ed := newEditor(t, doc, 6)

	assert.True(t, ed.KeyDown(editor.KeyBackspace))
	assert.True(t, content.Equal(content.Doc(content.Paragraph(content.Text("see @Go ok"))), ed.Doc()))
	assert.Equal(t, 8, ed.Cursor())
}

func TestDeleteRemovesMention(t *testing.T) {
	doc := content.Doc(content.Paragraph(content.Text("see "), New(Attrs{ID: "1", Label: "Go"}), content.Text(" ok")))
	ed := newEditor(t, doc, 5)

	assert.True(t, ed.KeyDown(editor.KeyDelete))
	assert.True(t, content.Equal(content.Doc(content.Paragraph(content.Text("see  ok"))), ed.Doc()))
	assert.Equal(t, 5, ed.Cursor())
}

func TestKeymapIgnoresPlainText(t *testing.T) {
	ed := newEditor(t, content.Doc(content.Paragraph(content.Text("abc"))), 3)
	assert.True(t, ed.KeyDown(editor.KeyBackspace))
	assert.True(t, content.Equal(content.Doc(content.Paragraph(content.Text("ac"))), ed.Doc()))
}
