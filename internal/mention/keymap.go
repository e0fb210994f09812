package mention

import (
	"github.com/cozy/prosemirror-go/model"

	"folio/internal/content"
	"folio/internal/editor"
)

// Keymap handles deletion at mention boundaries. Backspace right after a
// mention turns it back into editable "@label" text, so the author can pick
// a different target. Delete right before a mention removes it.
type Keymap struct{}

var _ editor.Plugin = Keymap{}

// KeyDown implements editor.Plugin.
func (Keymap) KeyDown(ed *editor.Editor, key editor.Key) bool {
	cur := ed.Cursor()
	rp := ed.Resolved()
	if rp == nil {
		return false
	}
	switch key {
	case editor.KeyBackspace:
		before := rp.NodeBefore()
		if !isMention(before) {
			return false
		}
		node, err := ed.Schema().FromModel(before)
		if err != nil {
			return false
		}
		text := string(Trigger) + AttrsOf(node).Label
		tr := ed.Tr().ReplaceWith(cur-1, cur, content.Text(text))
		return ed.Dispatch(tr) == nil
	case editor.KeyDelete:
		if !isMention(rp.NodeAfter()) {
			return false
		}
		return ed.Dispatch(ed.Tr().Delete(cur, cur+1)) == nil
	}
	return false
}

func isMention(n *model.Node) bool {
	return n != nil && content.NodeType(n.Type.Name) == content.TypeMention
}

// Update implements editor.Plugin.
func (Keymap) Update(*editor.Editor, editor.State) {}
