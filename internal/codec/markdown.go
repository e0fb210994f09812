package codec

import (
	"bytes"
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"

	"folio/internal/content"
)

// Raw HTML is kept so legacy posts that mix markup into Markdown, mention
// spans included, import the same way as pure HTML.
var markdownParser = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
)

// markdownToHTML converts Markdown source to HTML.
func markdownToHTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdownParser.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}

// ParseMarkdown builds a document tree from Markdown source.
func ParseMarkdown(src string) (content.Node, error) {
	out, err := markdownToHTML(src)
	if err != nil {
		return content.Node{}, err
	}
	return ParseHTML(out)
}

// Markdown exports a document tree as Markdown. Mentions become their
// plain "@label" text.
func Markdown(doc content.Node) (string, error) {
	root, err := html.Parse(strings.NewReader(RenderHTML(doc)))
	if err != nil {
		return "", fmt.Errorf("parse rendered html: %w", err)
	}
	out, err := htmltomarkdown.ConvertNode(root)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
