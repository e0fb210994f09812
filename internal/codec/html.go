package codec

import (
	"fmt"
	"html"
	"strings"

	"folio/internal/content"
	"folio/internal/mention"
)

// HTMLRenderer renders document trees to HTML. The zero value produces the
// stored markup.
type HTMLRenderer struct {
	// MaxHeading caps heading levels; zero means 6.
	MaxHeading int
	// Mention renders a mention node; nil writes the tagged span.
	Mention func(n content.Node) string
}

// RenderHTML converts a document tree to HTML. Mention nodes become tagged
// spans that ParseHTML reads back.
func RenderHTML(doc content.Node) string {
	return HTMLRenderer{}.Render(doc)
}

// Render converts doc to HTML.
func (r HTMLRenderer) Render(doc content.Node) string {
	var b strings.Builder
	r.renderNode(&b, doc)
	return b.String()
}

// renderNode recursively renders a node to HTML
func (r HTMLRenderer) renderNode(b *strings.Builder, n content.Node) {
	switch n.Type {
	case content.TypeDoc:
		r.renderContent(b, n.Content)
	case content.TypeParagraph:
		b.WriteString("<p>")
		r.renderContent(b, n.Content)
		b.WriteString("</p>\n")
	case content.TypeHeading:
		limit := r.MaxHeading
		if limit <= 0 {
			limit = 6
		}
		level := headingLevel(n, limit)
		fmt.Fprintf(b, "<h%d>", level)
		r.renderContent(b, n.Content)
		fmt.Fprintf(b, "</h%d>\n", level)
	case content.TypeBulletList:
		b.WriteString("<ul>\n")
		r.renderContent(b, n.Content)
		b.WriteString("</ul>\n")
	case content.TypeOrderedList:
		b.WriteString("<ol>\n")
		r.renderContent(b, n.Content)
		b.WriteString("</ol>\n")
	case content.TypeListItem:
		b.WriteString("<li>")
		r.renderContent(b, n.Content)
		b.WriteString("</li>\n")
	case content.TypeBlockquote:
		b.WriteString("<blockquote>\n")
		r.renderContent(b, n.Content)
		b.WriteString("</blockquote>\n")
	case content.TypeCodeBlock:
		if lang := n.AttrString("language"); lang != "" {
			fmt.Fprintf(b, `<pre><code class="language-%s">`, html.EscapeString(lang))
		} else {
			b.WriteString("<pre><code>")
		}
		for _, child := range n.Content {
			b.WriteString(html.EscapeString(child.Text))
		}
		b.WriteString("</code></pre>\n")
	case content.TypeHorizontalRule:
		b.WriteString("<hr>\n")
	case content.TypeImage:
		fmt.Fprintf(b, `<img src="%s"`, html.EscapeString(n.AttrString("src")))
		if alt := n.AttrString("alt"); alt != "" {
			fmt.Fprintf(b, ` alt="%s"`, html.EscapeString(alt))
		}
		b.WriteString(">\n")
	case content.TypeHardBreak:
		b.WriteString("<br>")
	case content.TypeText:
		b.WriteString(renderTextWithMarks(n.Text, n.Marks))
	case content.TypeMention:
		if r.Mention != nil {
			b.WriteString(r.Mention(n))
			return
		}
		b.WriteString(mention.RenderHTML(mention.AttrsOf(n)))
	default:
		r.renderContent(b, n.Content)
	}
}

func (r HTMLRenderer) renderContent(b *strings.Builder, nodes []content.Node) {
	for _, n := range nodes {
		r.renderNode(b, n)
	}
}

// headingLevel clamps a heading's level attribute to [1, limit].
func headingLevel(n content.Node, limit int) int {
	level := n.AttrInt("level", 1)
	if level < 1 {
		return 1
	}
	if level > limit {
		return limit
	}
	return level
}

// renderTextWithMarks renders text with formatting marks. The first mark is
// the outermost element.
func renderTextWithMarks(text string, marks []content.Mark) string {
	if text == "" {
		return ""
	}

	htmlText := html.EscapeString(text)

	for i := len(marks) - 1; i >= 0; i-- {
		mark := marks[i]
		switch mark.Type {
		case content.MarkBold:
			htmlText = "<strong>" + htmlText + "</strong>"
		case content.MarkItalic:
			htmlText = "<em>" + htmlText + "</em>"
		case content.MarkCode:
			htmlText = "<code>" + htmlText + "</code>"
		case content.MarkLink:
			href, _ := mark.Attrs["href"].(string)
			htmlText = fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(href), htmlText)
		case content.MarkStrike:
			htmlText = "<s>" + htmlText + "</s>"
		case content.MarkUnderline:
			htmlText = "<u>" + htmlText + "</u>"
		case content.MarkTextStyle:
			if style := textStyleCSS(mark); style != "" {
				htmlText = fmt.Sprintf(`<span style="%s">%s</span>`, html.EscapeString(style), htmlText)
			}
		}
	}

	return htmlText
}

// textStyleCSS renders the inline style declarations of a textStyle mark.
func textStyleCSS(mark content.Mark) string {
	var decls []string
	if color, _ := mark.Attrs["color"].(string); color != "" {
		decls = append(decls, "color: "+color)
	}
	if family, _ := mark.Attrs["fontFamily"].(string); family != "" {
		decls = append(decls, "font-family: "+family)
	}
	return strings.Join(decls, "; ")
}
