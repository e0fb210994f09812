package mention

import (
	"strings"

	"golang.org/x/net/html"
)

// Markup constants shared by the exporter and the parser.
const (
	DataType  = "articleMention"
	ClassName = "article-mention"
)

// RenderHTML renders a mention as a tagged span carrying its attributes as
// data attributes, with the plain-text form as the element text.
func RenderHTML(a Attrs) string {
	var b strings.Builder
	b.WriteString(`<span data-type="` + DataType + `" class="` + ClassName + `"`)
	writeAttr(&b, "data-id", a.ID)
	writeAttr(&b, "data-label", a.Label)
	writeAttr(&b, "data-slug", a.Slug)
	writeAttr(&b, "data-category", a.Category)
	b.WriteString(">")
	label := a.Label
	if label == "" {
		label = a.ID
	}
	b.WriteString(html.EscapeString("@" + label))
	b.WriteString("</span>")
	return b.String()
}

func writeAttr(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	b.WriteString(" " + name + `="` + html.EscapeString(value) + `"`)
}

// IsElement reports whether n is a mention span.
func IsElement(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && n.Data == "span" && attr(n, "data-type") == DataType
}

// ParseElement reads the attributes of a mention span. The category may be
// stored as data-category or data-categories. A span without data-label
// falls back to its text without the leading "@".
func ParseElement(n *html.Node) (Attrs, bool) {
	if !IsElement(n) {
		return Attrs{}, false
	}
	a := Attrs{
		ID:       attr(n, "data-id"),
		Label:    attr(n, "data-label"),
		Slug:     attr(n, "data-slug"),
		Category: attr(n, "data-category"),
	}
	if a.Category == "" {
		a.Category = attr(n, "data-categories")
	}
	if a.Label == "" && a.ID == "" {
		a.Label = strings.TrimPrefix(strings.TrimSpace(textOf(n)), "@")
	}
	return a, true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
