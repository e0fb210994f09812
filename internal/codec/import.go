package codec

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"folio/internal/content"
	"folio/internal/mention"
)

var bodyContext = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}

// ParseHTML builds a document tree from an HTML fragment. Unknown elements
// are transparent; images inside text are lifted out to block level.
func ParseHTML(src string) (content.Node, error) {
	nodes, err := html.ParseFragment(strings.NewReader(src), bodyContext)
	if err != nil {
		return content.Node{}, fmt.Errorf("parse html: %w", err)
	}
	root := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return content.Doc(blocks(root)...), nil
}

func isBlockElement(n *html.Node) bool {
	switch n.DataAtom {
	case atom.P, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Blockquote, atom.Ul, atom.Ol, atom.Li, atom.Pre, atom.Hr,
		atom.Div, atom.Section, atom.Article, atom.Main, atom.Header, atom.Footer,
		atom.Aside, atom.Nav, atom.Figure, atom.Table, atom.Thead, atom.Tbody, atom.Tr,
		atom.Td, atom.Th:
		return true
	}
	return false
}

// blocks converts the children of n in block context. Loose inline content
// is gathered into paragraphs.
func blocks(n *html.Node) []content.Node {
	var out, inline []content.Node
	flush := func() {
		if len(inline) > 0 {
			out = append(out, textblock(content.Paragraph, inline)...)
			inline = nil
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.TextNode:
			if len(inline) == 0 && strings.TrimSpace(c.Data) == "" {
				continue
			}
			inline = append(inline, inlineNodes(c, nil)...)
		case c.Type != html.ElementNode:
		case c.DataAtom == atom.Img:
			flush()
			out = append(out, content.Image(attr(c, "src"), attr(c, "alt")))
		case isBlockElement(c):
			flush()
			out = append(out, block(c)...)
		default:
			inline = append(inline, inlineNodes(c, nil)...)
		}
	}
	flush()
	return out
}

func block(n *html.Node) []content.Node {
	switch n.DataAtom {
	case atom.P:
		return textblock(content.Paragraph, children(n, nil))
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		level, _ := strconv.Atoi(n.Data[1:])
		return textblock(func(inline ...content.Node) content.Node {
			return content.Heading(level, inline...)
		}, children(n, nil))
	case atom.Blockquote:
		inner := blocks(n)
		if len(inner) == 0 {
			inner = []content.Node{content.Paragraph()}
		}
		return []content.Node{content.Blockquote(inner...)}
	case atom.Ul, atom.Ol:
		var items []content.Node
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				items = append(items, listItem(c))
			}
		}
		if len(items) == 0 {
			return nil
		}
		if n.DataAtom == atom.Ol {
			return []content.Node{content.OrderedList(items...)}
		}
		return []content.Node{content.BulletList(items...)}
	case atom.Pre:
		return []content.Node{content.CodeBlock(codeLanguage(n), textContent(n))}
	case atom.Hr:
		return []content.Node{content.HorizontalRule()}
	}
	return blocks(n)
}

// listItem wraps an element of a list; the first child of a list item must
// be a paragraph.
func listItem(n *html.Node) content.Node {
	inner := blocks(n)
	if len(inner) == 0 || inner[0].Type != content.TypeParagraph {
		inner = append([]content.Node{content.Paragraph()}, inner...)
	}
	return content.ListItem(inner...)
}

// textblock builds one textblock from inline nodes, splitting it around any
// images so they end up between blocks.
func textblock(build func(...content.Node) content.Node, inline []content.Node) []content.Node {
	var out, run []content.Node
	hoisted := false
	for _, n := range inline {
		if n.Type != content.TypeImage {
			run = append(run, n)
			continue
		}
		hoisted = true
		if len(content.NormalizeInline(run)) > 0 {
			out = append(out, build(content.NormalizeInline(run)...))
		}
		out = append(out, n)
		run = nil
	}
	if norm := content.NormalizeInline(run); len(norm) > 0 || !hoisted {
		out = append(out, build(norm...))
	}
	return out
}

func children(n *html.Node, marks []content.Mark) []content.Node {
	var out []content.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, inlineNodes(c, marks)...)
	}
	return out
}

func inlineNodes(n *html.Node, marks []content.Mark) []content.Node {
	if n.Type == html.TextNode {
		text := collapseSpace(n.Data)
		if text == "" {
			return nil
		}
		return []content.Node{content.TextWithMarks(text, marks)}
	}
	if n.Type != html.ElementNode {
		return nil
	}
	if attrs, ok := mention.ParseElement(n); ok {
		return []content.Node{mention.New(attrs)}
	}
	switch n.DataAtom {
	case atom.Br:
		return []content.Node{content.HardBreak()}
	case atom.Img:
		return []content.Node{content.Image(attr(n, "src"), attr(n, "alt"))}
	case atom.Strong, atom.B:
		marks = withMark(marks, content.Mark{Type: content.MarkBold})
	case atom.Em, atom.I:
		marks = withMark(marks, content.Mark{Type: content.MarkItalic})
	case atom.S, atom.Strike, atom.Del:
		marks = withMark(marks, content.Mark{Type: content.MarkStrike})
	case atom.Code:
		marks = withMark(marks, content.Mark{Type: content.MarkCode})
	case atom.U:
		marks = withMark(marks, content.Mark{Type: content.MarkUnderline})
	case atom.A:
		marks = withMark(marks, content.Link(attr(n, "href")))
	case atom.Span:
		if attrs := textStyleAttrs(attr(n, "style")); attrs != nil {
			marks = withMark(marks, content.Mark{Type: content.MarkTextStyle, Attrs: attrs})
		}
	}
	return children(n, marks)
}

func withMark(marks []content.Mark, m content.Mark) []content.Mark {
	for _, have := range marks {
		if have.Type == m.Type {
			return marks
		}
	}
	out := make([]content.Mark, 0, len(marks)+1)
	return append(append(out, marks...), m)
}

// textStyleAttrs reads the textStyle attributes out of an inline style, or
// nil when it sets none of them.
func textStyleAttrs(style string) map[string]any {
	var attrs map[string]any
	for _, decl := range strings.Split(style, ";") {
		name, value, ok := strings.Cut(decl, ":")
		value = strings.TrimSpace(value)
		if !ok || value == "" {
			continue
		}
		var key string
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "color":
			key = "color"
		case "font-family":
			key = "fontFamily"
		default:
			continue
		}
		if attrs == nil {
			attrs = map[string]any{}
		}
		attrs[key] = value
	}
	return attrs
}

func codeLanguage(pre *html.Node) string {
	for c := pre.FirstChild; c != nil; c = c.NextSibling {
		if c.DataAtom != atom.Code {
			continue
		}
		for _, class := range strings.Fields(attr(c, "class")) {
			if lang, ok := strings.CutPrefix(class, "language-"); ok {
				return lang
			}
		}
	}
	return ""
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
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

// collapseSpace folds runs of whitespace into one space, as a browser does
// outside preformatted text.
func collapseSpace(s string) string {
	var b strings.Builder
	space := false
	for _, r := range s {
		if r == ' ' || r == '\n' || r == '\t' || r == '\r' || r == '\f' {
			if !space {
				b.WriteByte(' ')
			}
			space = true
			continue
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}
