// Package render builds the read-only view of a post. Mentions render as
// reference cards from the snapshot stored in the node; the referenced
// article is never looked up.
package render

import (
	"bytes"
	"embed"
	"html/template"
	"strings"
	"time"

	"folio/internal/codec"
	"folio/internal/content"
	"folio/internal/mention"
)

// MaxHeading is the deepest heading level the reader shows.
const MaxHeading = 3

//go:embed templates/*.html
var templateFS embed.FS

var (
	pageTemplate *template.Template
	cardTemplate = template.Must(template.New("card").Parse(cardMarkup))
)

func init() {
	funcMap := template.FuncMap{
		"lower":         strings.ToLower,
		"categoryLabel": CategoryLabel,
		"formatDate": func(t time.Time, layout string) string {
			return t.Format(layout)
		},
	}

	templateContent, err := templateFS.ReadFile("templates/post.html")
	if err != nil {
		pageTemplate = template.Must(template.New("post").Funcs(funcMap).Parse(fallbackTemplate))
		return
	}

	pageTemplate = template.Must(template.New("post").Funcs(funcMap).Parse(string(templateContent)))
}

const cardMarkup = `<span class="article-mention-wrapper"><a href="/posts/{{.Slug}}" class="article-mention-card" draggable="true">` +
	`<svg class="article-mention-icon" width="16" height="16" viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round">` +
	`<path d="M14 2H6a2 2 0 0 0-2 2v16a2 2 0 0 0 2 2h12a2 2 0 0 0 2-2V8z"></path>` +
	`<polyline points="14 2 14 8 20 8"></polyline>` +
	`<line x1="16" y1="13" x2="8" y2="13"></line>` +
	`<line x1="16" y1="17" x2="8" y2="17"></line>` +
	`<polyline points="10 9 9 9 8 9"></polyline>` +
	`</svg>` +
	`<span class="article-mention-content"><span class="article-mention-title">{{.Label}}</span><span class="article-mention-category">{{.Category}}</span></span>` +
	`</a></span>`

// Card renders a mention node as a link card to the referenced article.
func Card(n content.Node) string {
	var buf bytes.Buffer
	if err := cardTemplate.Execute(&buf, mention.AttrsOf(n)); err != nil {
		return template.HTMLEscapeString(mention.RenderText(n))
	}
	return buf.String()
}

var reader = codec.HTMLRenderer{MaxHeading: MaxHeading, Mention: Card}

// Body renders doc for reading.
func Body(doc content.Node) template.HTML {
	return template.HTML(`<div class="post-content-renderer">` + reader.Render(doc) + `</div>`)
}

// CategoryLabel is the display name of a post category.
func CategoryLabel(category string) string {
	switch category {
	case "fixes":
		return "Fixes"
	case "thoughts":
		return "Thoughts"
	default:
		return "General"
	}
}

// PostView is what the reader page shows.
type PostView struct {
	SiteName  string
	Title     string
	Category  string
	CreatedAt time.Time
	Doc       content.Node
}

type pageData struct {
	SiteName  string
	Title     string
	Category  string
	CreatedAt time.Time
	Body      template.HTML
}

// Page renders the full reader page for a post.
func Page(v PostView) (string, error) {
	var buf bytes.Buffer
	data := pageData{
		SiteName:  v.SiteName,
		Title:     v.Title,
		Category:  v.Category,
		CreatedAt: v.CreatedAt,
		Body:      Body(v.Doc),
	}
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// fallbackTemplate is used if the embedded template fails to load
const fallbackTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
</head>
<body>
  <main>
    <span class="category category-{{lower .Category}}">{{categoryLabel .Category}}</span>
    <h1>{{.Title}}</h1>
    <div class="meta">{{formatDate .CreatedAt "January 2, 2006"}}</div>
    <article>{{.Body}}</article>
  </main>
</body>
</html>`
