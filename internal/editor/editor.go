// Package editor holds the mutable editing state around a ProseMirror
// document: a cursor, atomic transactions and key-driven plugins.
package editor

import (
	"errors"
	"fmt"

	"github.com/cozy/prosemirror-go/model"
	"github.com/cozy/prosemirror-go/transform"

	"folio/internal/content"
)

// Key names a key event, using the DOM KeyboardEvent.key names.
type Key string

const (
	KeyArrowUp    Key = "ArrowUp"
	KeyArrowDown  Key = "ArrowDown"
	KeyArrowLeft  Key = "ArrowLeft"
	KeyArrowRight Key = "ArrowRight"
	KeyEnter      Key = "Enter"
	KeyEscape     Key = "Escape"
	KeyBackspace  Key = "Backspace"
	KeyDelete     Key = "Delete"
	KeyTab        Key = "Tab"
)

// State is an editor snapshot. Cursor is a collapsed selection.
type State struct {
	Doc    content.Node
	Cursor int
}

// Plugin extends the editor. KeyDown runs before default key handling; the
// first plugin returning true consumes the key. Update runs after every
// dispatched transaction with the state it replaced.
type Plugin interface {
	KeyDown(ed *Editor, key Key) bool
	Update(ed *Editor, prev State)
}

// Editor owns the current state. It is not safe for concurrent use; all
// calls happen on the host's event loop.
type Editor struct {
	schema  *content.Schema
	node    *model.Node
	state   State
	plugins []Plugin
}

// New returns an editor over doc with the cursor at the start of the first
// textblock. The schema and plugin set are fixed for the editor's lifetime.
func New(schema *content.Schema, doc content.Node, plugins ...Plugin) (*Editor, error) {
	if schema == nil {
		return nil, errors.New("editor: schema is required")
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("editor: invalid document: %w", err)
	}
	node, err := schema.ToModel(doc)
	if err != nil {
		return nil, fmt.Errorf("editor: invalid document: %w", err)
	}
	tree, err := schema.FromModel(node)
	if err != nil {
		return nil, err
	}
	ed := &Editor{schema: schema, node: node, state: State{Doc: tree}, plugins: plugins}
	if pos, ok := ed.nextTextPos(-1, 1); ok {
		ed.state.Cursor = pos
	}
	return ed, nil
}

// Schema returns the schema the editor validates against.
func (e *Editor) Schema() *content.Schema { return e.schema }

// State returns the current state.
func (e *Editor) State() State { return e.state }

// Doc returns the current document.
func (e *Editor) Doc() content.Node { return e.state.Doc }

// Node returns the current document as a model node.
func (e *Editor) Node() *model.Node { return e.node }

// Cursor returns the cursor position.
func (e *Editor) Cursor() int { return e.state.Cursor }

// Resolved resolves the cursor position.
func (e *Editor) Resolved() *model.ResolvedPos {
	rp, _ := e.ResolvePos(e.state.Cursor)
	return rp
}

// ResolvePos resolves pos in the current document.
func (e *Editor) ResolvePos(pos int) (*model.ResolvedPos, error) {
	return resolve(e.node, e.state.Doc.ContentSize(), pos)
}

func resolve(doc *model.Node, size, pos int) (*model.ResolvedPos, error) {
	if pos < 0 || pos > size {
		return nil, fmt.Errorf("%w: %d outside [0,%d]", content.ErrInvalidPosition, pos, size)
	}
	rp, err := doc.Resolve(pos)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", content.ErrInvalidPosition, err)
	}
	return rp, nil
}

// Tr starts a transaction from the current state.
func (e *Editor) Tr() *Transaction {
	return &Transaction{
		schema: e.schema,
		tf:     transform.NewTransform(e.node),
		size:   e.state.Doc.ContentSize(),
		cursor: e.state.Cursor,
	}
}

// Dispatch applies tr in one step. A transaction carrying an error, or whose
// cursor does not land in a textblock, is rejected and leaves the state
// unchanged.
func (e *Editor) Dispatch(tr *Transaction) error {
	if tr.err != nil {
		return tr.err
	}
	doc := tr.tf.Doc
	tree := e.state.Doc
	if tr.steps > 0 {
		var err error
		if tree, err = e.schema.FromModel(doc); err != nil {
			return err
		}
	}
	rp, err := resolve(doc, tree.ContentSize(), tr.cursor)
	if err != nil {
		return err
	}
	if !e.textblock(rp.Parent()) {
		return fmt.Errorf("%w: cursor %d outside a textblock", content.ErrInvalidPosition, tr.cursor)
	}
	prev := e.state
	e.node = doc
	e.state = State{Doc: tree, Cursor: tr.cursor}
	for _, p := range e.plugins {
		p.Update(e, prev)
	}
	return nil
}

// KeyDown routes a key to the plugins, then to the default handling. It
// reports whether the key was handled.
func (e *Editor) KeyDown(key Key) bool {
	for _, p := range e.plugins {
		if p.KeyDown(e, key) {
			return true
		}
	}
	return e.defaultKey(key)
}

// Type inserts text one rune per transaction, as keystrokes would.
func (e *Editor) Type(text string) error {
	for _, r := range text {
		tr := e.Tr().InsertText(e.state.Cursor, string(r), e.marksAtCursor())
		if err := e.Dispatch(tr); err != nil {
			return err
		}
	}
	return nil
}

// SetCursor moves the cursor without changing the document.
func (e *Editor) SetCursor(pos int) error {
	return e.Dispatch(e.Tr().SetCursor(pos))
}

// marksAtCursor returns the marks typed text should carry: those of the
// text before the cursor, or of the text after it at the start of a block.
func (e *Editor) marksAtCursor() []content.Mark {
	rp := e.Resolved()
	if rp == nil {
		return nil
	}
	n := rp.NodeBefore()
	if n == nil {
		n = rp.NodeAfter()
	}
	if n == nil || !n.IsText() {
		return nil
	}
	tree, err := e.schema.FromModel(n)
	if err != nil {
		return nil
	}
	return tree.Marks
}

func (e *Editor) textblock(n *model.Node) bool {
	return n != nil && e.schema.IsTextblock(content.NodeType(n.Type.Name))
}

func (e *Editor) defaultKey(key Key) bool {
	switch key {
	case KeyArrowLeft:
		if pos, ok := e.nextTextPos(e.state.Cursor, -1); ok {
			_ = e.SetCursor(pos)
		}
		return true
	case KeyArrowRight:
		if pos, ok := e.nextTextPos(e.state.Cursor, 1); ok {
			_ = e.SetCursor(pos)
		}
		return true
	case KeyArrowUp:
		if rp := e.Resolved(); rp != nil {
			if pos, ok := e.nextTextPos(rp.Start()-1, -1); ok {
				if prev, err := e.ResolvePos(pos); err == nil {
					_ = e.SetCursor(prev.Start())
				}
			}
		}
		return true
	case KeyArrowDown:
		if rp := e.Resolved(); rp != nil {
			if pos, ok := e.nextTextPos(rp.End(), 1); ok {
				_ = e.SetCursor(pos)
			}
		}
		return true
	case KeyBackspace:
		return e.backspace()
	case KeyDelete:
		return e.forwardDelete()
	case KeyEnter:
		return e.Dispatch(e.Tr().Split(e.state.Cursor)) == nil
	}
	return false
}

func (e *Editor) backspace() bool {
	rp := e.Resolved()
	if rp == nil {
		return false
	}
	cur := e.state.Cursor
	if rp.ParentOffset > 0 {
		return e.Dispatch(e.Tr().Delete(cur-1, cur)) == nil
	}
	tr := e.Tr().JoinBackward(cur)
	if tr.Steps() == 0 {
		return false
	}
	return e.Dispatch(tr) == nil
}

func (e *Editor) forwardDelete() bool {
	rp := e.Resolved()
	if rp == nil {
		return false
	}
	cur := e.state.Cursor
	if cur < rp.End() {
		return e.Dispatch(e.Tr().Delete(cur, cur+1)) == nil
	}
	tr := e.Tr().JoinBackward(cur + 2)
	if tr.Steps() == 0 {
		return false
	}
	return e.Dispatch(tr) == nil
}

// nextTextPos walks from pos in direction dir and returns the first
// position inside a textblock.
func (e *Editor) nextTextPos(pos, dir int) (int, bool) {
	size := e.state.Doc.ContentSize()
	for p := pos + dir; p >= 0 && p <= size; p += dir {
		rp, err := e.ResolvePos(p)
		if err != nil {
			return 0, false
		}
		if e.textblock(rp.Parent()) {
			return p, true
		}
	}
	return 0, false
}
