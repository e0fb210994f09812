// Package mention defines the articleMention node: an atomic inline
// reference to another article that carries a snapshot of the target's
// title, slug and category taken when it was inserted.
package mention

import (
	"fmt"

	"github.com/cozy/prosemirror-go/model"

	"folio/internal/content"
	"folio/internal/search"
)

// Trigger is the default trigger character for mention suggestions.
const Trigger = '@'

// Attrs are the attributes stored on a mention node. Label, Slug and
// Category are denormalized and never refreshed from the target article.
type Attrs struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Slug     string `json:"slug"`
	Category string `json:"category"`
}

var attrSpecs = map[string]*model.AttributeSpec{
	"id":       {Default: ""},
	"label":    {Default: ""},
	"slug":     {Default: ""},
	"category": {Default: ""},
}

// Spec returns the node spec registered for mentions: an inline leaf, so
// the cursor never enters it and it occupies a single position.
func Spec() *model.NodeSpec {
	return &model.NodeSpec{Key: "articleMention", Group: "inline", Attrs: attrSpecs}
}

// NewSchema builds the editing schema: the base node set plus mentions.
func NewSchema() (*content.Schema, error) {
	s, err := content.NewSchema(append(content.BaseSpecs(), Spec())...)
	if err != nil {
		return nil, fmt.Errorf("mention: build schema: %w", err)
	}
	return s, nil
}

// New builds a mention node. Empty attributes are left out of the tree.
func New(a Attrs) content.Node {
	attrs := map[string]any{}
	set := func(k, v string) {
		if v != "" {
			attrs[k] = v
		}
	}
	set("id", a.ID)
	set("label", a.Label)
	set("slug", a.Slug)
	set("category", a.Category)
	if len(attrs) == 0 {
		attrs = nil
	}
	return content.Node{Type: content.TypeMention, Attrs: attrs}
}

// FromCandidate snapshots a candidate into mention attributes. The
// candidate title becomes the label.
func FromCandidate(c search.Candidate) Attrs {
	return Attrs{ID: c.ID, Label: c.Title, Slug: c.Slug, Category: c.Category}
}

// AttrsOf reads the attributes of a mention node.
func AttrsOf(n content.Node) Attrs {
	return Attrs{
		ID:       n.AttrString("id"),
		Label:    n.AttrString("label"),
		Slug:     n.AttrString("slug"),
		Category: n.AttrString("category"),
	}
}

// RenderText is the plain-text form of a mention: "@" and the label, or the
// id when the label is missing.
func RenderText(n content.Node) string {
	a := AttrsOf(n)
	if a.Label != "" {
		return "@" + a.Label
	}
	return "@" + a.ID
}

// LeafText renders any leaf for plain-text output, mentions as RenderText.
func LeafText(n content.Node) string {
	if n.Type == content.TypeMention {
		return RenderText(n)
	}
	return ""
}

// MustSchema is NewSchema for callers that cannot recover from a broken
// node set.
func MustSchema() *content.Schema {
	s, err := NewSchema()
	if err != nil {
		panic(err)
	}
	return s
}
