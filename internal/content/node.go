// Package content defines the document tree stored in a post body: a rooted,
// ordered tree of block and inline nodes in the tiptap/ProseMirror JSON shape.
package content

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"strings"
	"unicode/utf8"
)

// ErrInvalidPosition is returned when a position falls outside the document
// or does not satisfy the requirements of an operation.
var ErrInvalidPosition = errors.New("content: invalid position")

// NodeType identifies a node variant. The set is closed; every renderer and
// parser in the repository switches over these values.
type NodeType string

const (
	TypeDoc            NodeType = "doc"
	TypeParagraph      NodeType = "paragraph"
	TypeHeading        NodeType = "heading"
	TypeBlockquote     NodeType = "blockquote"
	TypeBulletList     NodeType = "bulletList"
	TypeOrderedList    NodeType = "orderedList"
	TypeListItem       NodeType = "listItem"
	TypeCodeBlock      NodeType = "codeBlock"
	TypeHorizontalRule NodeType = "horizontalRule"
	TypeImage          NodeType = "image"
	TypeHardBreak      NodeType = "hardBreak"
	TypeText           NodeType = "text"
	TypeMention        NodeType = "articleMention"
)

// MarkType identifies inline formatting applied to text nodes.
type MarkType string

const (
	MarkBold      MarkType = "bold"
	MarkItalic    MarkType = "italic"
	MarkStrike    MarkType = "strike"
	MarkCode      MarkType = "code"
	MarkUnderline MarkType = "underline"
	MarkLink      MarkType = "link"
	MarkTextStyle MarkType = "textStyle"
)

// Mark represents a text mark (formatting).
type Mark struct {
	Type  MarkType       `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// Node represents a node in the document tree.
type Node struct {
	Type    NodeType       `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []Node         `json:"content,omitempty"`
	Text    string         `json:"text,omitempty"`
	Marks   []Mark         `json:"marks,omitempty"`
}

// Range is a half-open span [From, To) of document positions.
type Range struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Len returns the number of positions covered by the range.
func (r Range) Len() int { return r.To - r.From }

// IsText reports whether n is a text node.
func (n Node) IsText() bool { return n.Type == TypeText }

// IsLeaf reports whether n can never hold children. Text nodes are leaves
// too but occupy one position per rune.
func (n Node) IsLeaf() bool {
	switch n.Type {
	case TypeText, TypeImage, TypeHardBreak, TypeHorizontalRule, TypeMention:
		return true
	case TypeDoc, TypeParagraph, TypeHeading, TypeBlockquote, TypeBulletList,
		TypeOrderedList, TypeListItem, TypeCodeBlock:
		return false
	}
	return len(n.Content) == 0
}

// Size is the number of positions the node occupies inside its parent.
func (n Node) Size() int {
	if n.IsText() {
		return utf8.RuneCountInString(n.Text)
	}
	if n.IsLeaf() {
		return 1
	}
	return n.ContentSize() + 2
}

// ContentSize is the number of positions between the node's open and close
// tokens.
func (n Node) ContentSize() int {
	size := 0
	for _, child := range n.Content {
		size += child.Size()
	}
	return size
}

// AttrString returns a string attribute or "" if missing or not a string.
func (n Node) AttrString(key string) string {
	if n.Attrs == nil {
		return ""
	}
	s, _ := n.Attrs[key].(string)
	return s
}

// AttrInt returns an integer attribute, accepting the float64 values
// produced by JSON decoding.
func (n Node) AttrInt(key string, fallback int) int {
	if n.Attrs == nil {
		return fallback
	}
	switch v := n.Attrs[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if math.Trunc(v) == v {
			return int(v)
		}
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i)
		}
	}
	return fallback
}

// HasMark reports whether the text node carries a mark of the given type.
func (n Node) HasMark(t MarkType) bool {
	for _, m := range n.Marks {
		if m.Type == t {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of n.
func (n Node) Clone() Node {
	out := n
	out.Attrs = cloneAttrs(n.Attrs)
	if n.Content != nil {
		out.Content = make([]Node, len(n.Content))
		for i, child := range n.Content {
			out.Content[i] = child.Clone()
		}
	}
	if n.Marks != nil {
		out.Marks = make([]Mark, len(n.Marks))
		for i, m := range n.Marks {
			out.Marks[i] = Mark{Type: m.Type, Attrs: cloneAttrs(m.Attrs)}
		}
	}
	return out
}

func cloneAttrs(attrs map[string]any) map[string]any {
	if attrs == nil {
		return nil
	}
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}

// Equal reports whether two trees are equivalent once encoded. Numeric
// attributes compare by value, so a level of int 2 equals a decoded 2.0, and
// nil and empty collections are the same.
func Equal(a, b Node) bool {
	ab, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(ab) == string(bb)
}

// NormalizeInline drops empty text nodes and merges adjacent text nodes with
// identical marks.
func NormalizeInline(children []Node) []Node {
	out := make([]Node, 0, len(children))
	for _, child := range children {
		if child.IsText() && child.Text == "" {
			continue
		}
		if n := len(out); n > 0 && child.IsText() && out[n-1].IsText() && sameMarks(out[n-1].Marks, child.Marks) {
			out[n-1].Text += child.Text
			continue
		}
		out = append(out, child)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func sameMarks(a, b []Mark) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Type != b[i].Type || !reflect.DeepEqual(a[i].Attrs, b[i].Attrs) {
			return false
		}
	}
	return true
}

// PlainText renders the readable text of a tree. Blocks are separated by a
// blank line; leafText supplies the text of non-text leaves (nil drops them).
func PlainText(n Node, leafText func(Node) string) string {
	var b strings.Builder
	writePlain(&b, n, leafText)
	return strings.TrimSpace(b.String())
}

func writePlain(b *strings.Builder, n Node, leafText func(Node) string) {
	switch n.Type {
	case TypeText:
		b.WriteString(n.Text)
	case TypeHardBreak:
		b.WriteString("\n")
	case TypeImage, TypeHorizontalRule, TypeMention:
		if leafText != nil {
			b.WriteString(leafText(n))
		}
	case TypeParagraph, TypeHeading, TypeCodeBlock:
		for _, child := range n.Content {
			writePlain(b, child, leafText)
		}
		b.WriteString("\n\n")
	case TypeDoc, TypeBlockquote, TypeBulletList, TypeOrderedList, TypeListItem:
		for _, child := range n.Content {
			writePlain(b, child, leafText)
		}
	default:
		for _, child := range n.Content {
			writePlain(b, child, leafText)
		}
	}
}
