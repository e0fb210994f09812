package codec

import (
	"bytes"
	"encoding/json"
	"log"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"folio/internal/content"
	"folio/internal/mention"
)

// ExcerptLength is the rune cap of a derived excerpt, before the ellipsis.
const ExcerptLength = 180

const ellipsis = "…"

// DeriveExcerpt returns a single-line plain-text preview of persisted
// content in any accepted shape. It reports false when there is nothing to
// show; it never fails.
func DeriveExcerpt(raw []byte) (excerpt string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("codec: derive excerpt: %v", r)
			excerpt, ok = "", false
		}
	}()

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}

	var text string
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		text = stringText(string(raw))
	} else {
		switch v := value.(type) {
		case string:
			text = stringText(v)
		case map[string]any:
			text = objectText(v, raw)
		default:
			text = string(raw)
		}
	}

	text = strings.Join(strings.Fields(strings.ToValidUTF8(text, "\uFFFD")), " ")
	if text == "" {
		return "", false
	}
	runes := []rune(text)
	if len(runes) > ExcerptLength {
		return string(runes[:ExcerptLength]) + ellipsis, true
	}
	return text, true
}

func objectText(v map[string]any, raw []byte) string {
	if s, ok := v["html"].(string); ok {
		return htmlText(s)
	}
	if s, ok := v["markdown"].(string); ok {
		return markdownText(s)
	}
	if s, ok := v["text"].(string); ok {
		return s
	}
	if tree, ok := v["json"]; ok && tree != nil {
		return treeText(tree)
	}
	if v["type"] == string(content.TypeDoc) {
		return treeText(v)
	}
	return string(raw)
}

func stringText(s string) string {
	if htmlTag.MatchString(s) {
		return htmlText(s)
	}
	return markdownText(s)
}

func treeText(v any) string {
	buf, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	var doc content.Node
	if err := json.Unmarshal(buf, &doc); err != nil {
		return ""
	}
	return content.PlainText(doc, mention.LeafText)
}

func markdownText(src string) string {
	out, err := markdownToHTML(src)
	if err != nil {
		return src
	}
	return htmlText(out)
}

// htmlText extracts the visible text of an HTML fragment. Block elements
// are separated by a space.
func htmlText(src string) string {
	nodes, err := html.ParseFragment(strings.NewReader(src), bodyContext)
	if err != nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && (isBlockElement(n) || n.DataAtom == atom.Br) {
			b.WriteByte(' ')
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return b.String()
}
