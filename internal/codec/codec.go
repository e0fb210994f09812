// Package codec converts post content between the document tree and its
// persisted forms. Writes always produce the wrapped {json, html} shape;
// reads accept every legacy shape a post may still carry.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"

	"folio/internal/content"
)

// Persisted is the current stored shape of post content.
type Persisted struct {
	JSON *content.Node `json:"json"`
	HTML string        `json:"html"`
}

// Shape identifies which persisted form Deserialize recognized.
type Shape int

const (
	ShapeEmpty Shape = iota
	ShapeWrapped
	ShapeTree
	ShapeHTML
	ShapeMarkdown
	ShapeRaw
)

func (s Shape) String() string {
	switch s {
	case ShapeEmpty:
		return "empty"
	case ShapeWrapped:
		return "wrapped"
	case ShapeTree:
		return "tree"
	case ShapeHTML:
		return "html"
	case ShapeMarkdown:
		return "markdown"
	case ShapeRaw:
		return "raw"
	}
	return fmt.Sprintf("shape(%d)", int(s))
}

var htmlTag = regexp.MustCompile(`<\w+[^>]*>`)

// Codec validates trees against a schema on the way in and out.
type Codec struct {
	schema *content.Schema
}

// New returns a codec for documents of schema.
func New(schema *content.Schema) *Codec {
	return &Codec{schema: schema}
}

// Schema returns the schema documents are validated against.
func (c *Codec) Schema() *content.Schema { return c.schema }

// Serialize returns the persisted form of doc.
func (c *Codec) Serialize(doc content.Node) (Persisted, error) {
	if err := c.schema.Validate(doc); err != nil {
		return Persisted{}, fmt.Errorf("serialize: %w", err)
	}
	tree := doc.Clone()
	return Persisted{JSON: &tree, HTML: RenderHTML(doc)}, nil
}

// Encode serializes doc to the JSON stored in a post's content column.
func (c *Codec) Encode(doc content.Node) ([]byte, error) {
	p, err := c.Serialize(doc)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode content: %w", err)
	}
	return raw, nil
}

// Normalize reads content in any accepted shape and re-encodes it in the
// wrapped shape.
func (c *Codec) Normalize(raw []byte) ([]byte, Shape, error) {
	doc, shape := c.Deserialize(raw)
	out, err := c.Encode(doc)
	return out, shape, err
}

// Deserialize reads persisted content of any accepted shape. Checks run in
// order: wrapped {json} object, bare tree with a doc type marker, HTML,
// Markdown. Anything else comes back as a code block holding the raw value,
// so it never fails.
func (c *Codec) Deserialize(raw []byte) (content.Node, Shape) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return content.Doc(), ShapeEmpty
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		// Not JSON at all: a legacy text column.
		return c.fromString(string(raw), raw)
	}

	switch v := value.(type) {
	case string:
		return c.fromString(v, raw)
	case map[string]any:
		return c.fromObject(v, raw)
	}
	return c.rawDump(raw)
}

func (c *Codec) fromObject(v map[string]any, raw []byte) (content.Node, Shape) {
	if tree, ok := v["json"]; ok && tree != nil {
		if doc, ok := c.decodeTree(tree); ok {
			return doc, ShapeWrapped
		}
	}
	if v["type"] == string(content.TypeDoc) {
		if doc, ok := c.decodeTree(v); ok {
			return doc, ShapeTree
		}
	}
	if s, ok := v["html"].(string); ok {
		if doc, ok := c.parse(ParseHTML, s); ok {
			return doc, ShapeHTML
		}
	}
	if s, ok := v["markdown"].(string); ok {
		if doc, ok := c.parse(ParseMarkdown, s); ok {
			return doc, ShapeMarkdown
		}
	}
	return c.rawDump(raw)
}

func (c *Codec) fromString(s string, raw []byte) (content.Node, Shape) {
	if htmlTag.MatchString(s) {
		if doc, ok := c.parse(ParseHTML, s); ok {
			return doc, ShapeHTML
		}
		return c.rawDump(raw)
	}
	if doc, ok := c.parse(ParseMarkdown, s); ok {
		return doc, ShapeMarkdown
	}
	return c.rawDump(raw)
}

func (c *Codec) decodeTree(v any) (content.Node, bool) {
	buf, err := json.Marshal(v)
	if err != nil {
		return content.Node{}, false
	}
	var doc content.Node
	if err := json.Unmarshal(buf, &doc); err != nil {
		return content.Node{}, false
	}
	if doc.Type == content.TypeDoc && len(doc.Content) == 0 {
		doc = content.Doc()
	}
	if doc.Type != content.TypeDoc || c.schema.Validate(doc) != nil {
		return content.Node{}, false
	}
	return doc, true
}

func (c *Codec) parse(fn func(string) (content.Node, error), src string) (content.Node, bool) {
	doc, err := fn(src)
	if err != nil || c.schema.Validate(doc) != nil {
		return content.Node{}, false
	}
	return doc, true
}

// rawDump wraps an unrecognized value in a code block so it still renders.
func (c *Codec) rawDump(raw []byte) (content.Node, Shape) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(raw)
	}
	return content.Doc(content.CodeBlock("json", pretty.String())), ShapeRaw
}
