package content

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cozy/prosemirror-go/model"
)

// ErrContentRule is returned when a tree violates a node's content expression.
var ErrContentRule = errors.New("content: content rule violated")

var (
	noMarks = ""
	falsy   = false

	headingAttrs = map[string]*model.AttributeSpec{
		"level": {Default: 1},
	}
	orderedListAttrs = map[string]*model.AttributeSpec{
		"start": {Default: 1},
	}
	codeBlockAttrs = map[string]*model.AttributeSpec{
		"language": {Default: ""},
	}
	imageAttrs = map[string]*model.AttributeSpec{
		"src":   {Default: ""},
		"alt":   {Default: ""},
		"title": {Default: ""},
	}
	linkAttrs = map[string]*model.AttributeSpec{
		"href": {Default: ""},
	}
	textStyleAttrs = map[string]*model.AttributeSpec{
		"color":      {Default: ""},
		"fontFamily": {Default: ""},
	}
)

// implicit lists attribute values that are dropped when a tree is read back
// from the editing model, because stored documents leave them out.
var implicit = map[NodeType]map[string]string{
	TypeOrderedList: {"start": "1"},
}

// BaseSpecs returns the block and inline node types every editor supports,
// in the tiptap naming the stored documents use.
func BaseSpecs() []*model.NodeSpec {
	return []*model.NodeSpec{
		{Key: "doc", Content: "block+"},
		{Key: "paragraph", Content: "inline*", Group: "block"},
		{Key: "heading", Content: "inline*", Group: "block", Attrs: headingAttrs},
		{Key: "blockquote", Content: "block+", Group: "block"},
		{Key: "bulletList", Content: "listItem+", Group: "block"},
		{Key: "orderedList", Content: "listItem+", Group: "block", Attrs: orderedListAttrs},
		{Key: "listItem", Content: "paragraph block*"},
		{Key: "codeBlock", Content: "text*", Marks: &noMarks, Group: "block", Attrs: codeBlockAttrs},
		{Key: "horizontalRule", Group: "block"},
		{Key: "image", Group: "block", Attrs: imageAttrs},
		{Key: "text", Group: "inline"},
		{Key: "hardBreak", Group: "inline"},
	}
}

// MarkSpecs returns the mark types of the schema.
func MarkSpecs() []*model.MarkSpec {
	return []*model.MarkSpec{
		{Key: "link", Attrs: linkAttrs, Inclusive: &falsy},
		{Key: "bold"},
		{Key: "italic"},
		{Key: "strike"},
		{Key: "code"},
		{Key: "underline"},
		{Key: "textStyle", Attrs: textStyleAttrs},
	}
}

// Schema pairs a ProseMirror schema with the node specs it was built from.
// The model does the content matching, position resolution and replace
// steps; Node trees are converted in and out at the edges.
type Schema struct {
	pm    *model.Schema
	specs map[NodeType]*model.NodeSpec
	marks map[MarkType]*model.MarkSpec
	types map[NodeType]*model.NodeType
	order []NodeType
}

// NewSchema builds a schema. Later specs override earlier ones with the same
// key, which lets extensions replace base definitions.
func NewSchema(specs ...*model.NodeSpec) (*Schema, error) {
	var nodes []*model.NodeSpec
	index := make(map[NodeType]int, len(specs))
	for _, spec := range specs {
		t := NodeType(spec.Key)
		if t == "" {
			return nil, fmt.Errorf("content: node spec without key")
		}
		if i, ok := index[t]; ok {
			nodes[i] = spec
			continue
		}
		index[t] = len(nodes)
		nodes = append(nodes, spec)
	}

	marks := MarkSpecs()
	pm, err := model.NewSchema(&model.SchemaSpec{Nodes: nodes, Marks: marks})
	if err != nil {
		return nil, fmt.Errorf("content: build schema: %w", err)
	}

	s := &Schema{
		pm:    pm,
		specs: make(map[NodeType]*model.NodeSpec, len(nodes)),
		marks: make(map[MarkType]*model.MarkSpec, len(marks)),
		types: make(map[NodeType]*model.NodeType, len(nodes)),
	}
	for _, spec := range nodes {
		nt, err := pm.NodeType(spec.Key)
		if err != nil {
			return nil, fmt.Errorf("content: node %q: %w", spec.Key, err)
		}
		t := NodeType(spec.Key)
		s.specs[t] = spec
		s.types[t] = nt
		s.order = append(s.order, t)
	}
	for _, spec := range marks {
		s.marks[MarkType(spec.Key)] = spec
	}
	return s, nil
}

// MustSchema is NewSchema that panics on error, for package-level schemas.
func MustSchema(specs ...*model.NodeSpec) *Schema {
	s, err := NewSchema(specs...)
	if err != nil {
		panic(err)
	}
	return s
}

// Model returns the underlying ProseMirror schema.
func (s *Schema) Model() *model.Schema { return s.pm }

// NodeType returns the model type for t, or nil when t is not registered.
func (s *Schema) NodeType(t NodeType) *model.NodeType { return s.types[t] }

// Types lists the registered node types in registration order.
func (s *Schema) Types() []NodeType {
	return append([]NodeType(nil), s.order...)
}

// Allows reports whether the content of a parent node may start with a
// child node, per the parent type's content match.
func (s *Schema) Allows(parent, child NodeType) bool {
	pt, ok := s.types[parent]
	if !ok || pt.ContentMatch == nil {
		return false
	}
	ct, ok := s.types[child]
	return ok && pt.ContentMatch.MatchType(ct) != nil
}

// IsTextblock reports whether t holds inline content directly.
func (s *Schema) IsTextblock(t NodeType) bool {
	return s.Allows(t, TypeText)
}

// IsAtom reports whether t is an inline leaf edited as a single unit.
func (s *Schema) IsAtom(t NodeType) bool {
	spec, ok := s.specs[t]
	return ok && t != TypeText && spec.Group == "inline" && spec.Content == ""
}

// Validate checks the whole tree against the schema.
func (s *Schema) Validate(n Node) error {
	pm, err := s.ToModel(n)
	if err != nil {
		return err
	}
	if err := pm.Check(); err != nil {
		return fmt.Errorf("%w: %v", ErrContentRule, err)
	}
	return nil
}

// ToModel converts a tree to a model node. Declared attributes missing from
// the tree get their defaults. The content itself is not checked.
func (s *Schema) ToModel(n Node) (*model.Node, error) {
	if err := s.known(n); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(s.complete(n))
	if err != nil {
		return nil, fmt.Errorf("content: encode node: %w", err)
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("content: encode node: %w", err)
	}
	pm, err := model.NodeFromJSON(s.pm, obj)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContentRule, err)
	}
	return pm, nil
}

// FromModel converts a model node back to a tree. Empty attributes are
// dropped so the result matches what the builders produce.
func (s *Schema) FromModel(pm *model.Node) (Node, error) {
	raw, err := json.Marshal(pm.ToJSON())
	if err != nil {
		return Node{}, fmt.Errorf("content: decode node: %w", err)
	}
	var n Node
	if err := json.Unmarshal(raw, &n); err != nil {
		return Node{}, fmt.Errorf("content: decode node: %w", err)
	}
	return trim(n), nil
}

// Fragment converts nodes into model content by wrapping them in a node of
// type wrapper, which is never checked against its content rule.
func (s *Schema) Fragment(wrapper NodeType, nodes []Node) (*model.Fragment, error) {
	pm, err := s.ToModel(Node{Type: wrapper, Content: nodes})
	if err != nil {
		return nil, err
	}
	return pm.Content, nil
}

// known rejects what the model cannot represent at all: unknown node or
// mark types and empty text nodes.
func (s *Schema) known(n Node) error {
	if _, ok := s.specs[n.Type]; !ok {
		return fmt.Errorf("%w: unknown node %q", ErrContentRule, n.Type)
	}
	if n.IsText() && n.Text == "" {
		return fmt.Errorf("%w: empty text node", ErrContentRule)
	}
	for _, m := range n.Marks {
		if _, ok := s.marks[m.Type]; !ok {
			return fmt.Errorf("%w: unknown mark %q", ErrContentRule, m.Type)
		}
	}
	for _, child := range n.Content {
		if err := s.known(child); err != nil {
			return err
		}
	}
	return nil
}

func (s *Schema) complete(n Node) Node {
	out := n
	if spec := s.specs[n.Type]; spec != nil && len(spec.Attrs) > 0 {
		out.Attrs = withDefaults(n.Attrs, spec.Attrs)
	}
	if len(n.Marks) > 0 {
		out.Marks = make([]Mark, len(n.Marks))
		for i, m := range n.Marks {
			out.Marks[i] = m
			if spec := s.marks[m.Type]; spec != nil && len(spec.Attrs) > 0 {
				out.Marks[i].Attrs = withDefaults(m.Attrs, spec.Attrs)
			}
		}
	}
	if n.Content != nil {
		out.Content = make([]Node, len(n.Content))
		for i, child := range n.Content {
			out.Content[i] = s.complete(child)
		}
	}
	return out
}

func withDefaults(attrs map[string]any, specs map[string]*model.AttributeSpec) map[string]any {
	out := make(map[string]any, len(specs))
	for k, spec := range specs {
		if v, ok := attrs[k]; ok && v != nil {
			out[k] = v
			continue
		}
		out[k] = spec.Default
	}
	return out
}

func trim(n Node) Node {
	n.Attrs = trimAttrs(n.Attrs, implicit[n.Type])
	for i := range n.Marks {
		n.Marks[i].Attrs = trimAttrs(n.Marks[i].Attrs, nil)
	}
	for i := range n.Content {
		n.Content[i] = trim(n.Content[i])
	}
	return n
}

func trimAttrs(attrs map[string]any, defaults map[string]string) map[string]any {
	for k, v := range attrs {
		if v == nil || v == "" {
			delete(attrs, k)
			continue
		}
		if def, ok := defaults[k]; ok && fmt.Sprint(v) == def {
			delete(attrs, k)
		}
	}
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}
