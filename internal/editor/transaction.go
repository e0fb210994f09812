package editor

import (
	"fmt"

	"github.com/cozy/prosemirror-go/model"
	"github.com/cozy/prosemirror-go/transform"

	"folio/internal/content"
)

// Transaction accumulates replace steps on a transform of the document.
// Nothing is visible until the editor dispatches it; the first failing step
// poisons the transaction.
type Transaction struct {
	schema *content.Schema
	tf     *transform.Transform
	size   int
	cursor int
	steps  int
	err    error
}

// Node returns the working document.
func (tr *Transaction) Node() *model.Node { return tr.tf.Doc }

// Cursor returns the working cursor.
func (tr *Transaction) Cursor() int { return tr.cursor }

// Err returns the first step error.
func (tr *Transaction) Err() error { return tr.err }

// Steps returns the number of applied steps.
func (tr *Transaction) Steps() int { return tr.steps }

// DocChanged reports whether any step changed the document.
func (tr *Transaction) DocChanged() bool { return tr.steps > 0 }

// ReplaceWith replaces [from, to) with inline nodes as a single replace
// step. A cursor after the range shifts by the size difference; a cursor
// inside it moves to the end of the inserted content.
func (tr *Transaction) ReplaceWith(from, to int, nodes ...content.Node) *Transaction {
	if tr.err != nil {
		return tr
	}
	if from > to || from < 0 || to > tr.size {
		tr.err = fmt.Errorf("%w: range %d-%d outside [0,%d]", content.ErrInvalidPosition, from, to, tr.size)
		return tr
	}
	frag, err := tr.schema.Fragment(content.TypeParagraph, nodes)
	if err != nil {
		tr.err = err
		return tr
	}
	if err := tr.step(from, to, model.NewSlice(frag, 0, 0), false); err != nil {
		tr.err = err
		return tr
	}
	inserted := 0
	for _, n := range nodes {
		inserted += n.Size()
	}
	switch {
	case tr.cursor >= to:
		tr.cursor += inserted - (to - from)
	case tr.cursor > from:
		tr.cursor = from + inserted
	}
	tr.size += inserted - (to - from)
	return tr
}

// InsertText inserts text at pos carrying marks.
func (tr *Transaction) InsertText(pos int, text string, marks []content.Mark) *Transaction {
	if text == "" {
		return tr
	}
	return tr.ReplaceWith(pos, pos, content.TextWithMarks(text, marks))
}

// Delete removes the content in [from, to).
func (tr *Transaction) Delete(from, to int) *Transaction {
	return tr.ReplaceWith(from, to)
}

// Split splits the textblock at pos and puts the cursor at the start of the
// new block. Splitting at the end of a heading starts a paragraph; the
// first paragraph of a list item splits the item.
func (tr *Transaction) Split(pos int) *Transaction {
	if tr.err != nil {
		return tr
	}
	rp, err := resolve(tr.tf.Doc, tr.size, pos)
	if err != nil {
		tr.err = err
		return tr
	}
	parent := rp.Parent()
	pt := content.NodeType(parent.Type.Name)
	if rp.Depth == 0 || !tr.schema.IsTextblock(pt) {
		tr.err = fmt.Errorf("%w: %d is not inside a textblock", content.ErrInvalidPosition, pos)
		return tr
	}
	if pt == content.TypeCodeBlock {
		tr.err = fmt.Errorf("%w: code blocks do not split", content.ErrInvalidPosition)
		return tr
	}
	block, err := tr.schema.FromModel(parent)
	if err != nil {
		tr.err = err
		return tr
	}
	first := content.Node{Type: pt, Attrs: block.Attrs}
	second := content.Node{Type: pt, Attrs: block.Attrs}
	if pt == content.TypeHeading && pos == rp.End() {
		second = content.Paragraph()
	}

	depth := 1
	blocks := []content.Node{first, second}
	if rp.Depth >= 2 && content.NodeType(rp.Node(rp.Depth-1).Type.Name) == content.TypeListItem && rp.Index(rp.Depth-1) == 0 {
		depth = 2
		blocks = []content.Node{content.ListItem(first), content.ListItem(second)}
	}
	frag, err := tr.schema.Fragment(content.TypeDoc, blocks)
	if err != nil {
		tr.err = err
		return tr
	}
	if err := tr.step(pos, pos, model.NewSlice(frag, depth, depth), true); err != nil {
		tr.err = err
		return tr
	}
	tr.cursor = pos + 2*depth
	tr.size += 2 * depth
	return tr
}

// JoinBackward merges the textblock starting at pos into the sibling
// textblock directly before it by deleting the boundary between them. It
// leaves the transaction unchanged when pos is not at the start of a
// textblock or no sibling textblock precedes it; the cursor ends where the
// two contents meet.
func (tr *Transaction) JoinBackward(pos int) *Transaction {
	if tr.err != nil {
		return tr
	}
	rp, err := resolve(tr.tf.Doc, tr.size, pos)
	if err != nil || rp.Depth == 0 || rp.ParentOffset != 0 || !tr.schema.IsTextblock(content.NodeType(rp.Parent().Type.Name)) {
		return tr
	}
	prev, err := resolve(tr.tf.Doc, tr.size, pos-2)
	if err != nil || prev.Depth != rp.Depth || !tr.schema.IsTextblock(content.NodeType(prev.Parent().Type.Name)) {
		return tr
	}
	empty, err := tr.schema.Fragment(content.TypeParagraph, nil)
	if err != nil {
		return tr
	}
	if err := tr.step(pos-2, pos, model.NewSlice(empty, 0, 0), false); err != nil {
		return tr
	}
	tr.cursor = pos - 2
	tr.size -= 2
	return tr
}

// SetCursor places the cursor.
func (tr *Transaction) SetCursor(pos int) *Transaction {
	if tr.err != nil {
		return tr
	}
	tr.cursor = pos
	return tr
}

func (tr *Transaction) step(from, to int, slice *model.Slice, structure bool) error {
	if err := tr.tf.Step(transform.NewReplaceStep(from, to, slice, structure)); err != nil {
		return fmt.Errorf("%w: replace %d-%d: %v", content.ErrContentRule, from, to, err)
	}
	tr.steps++
	return nil
}
