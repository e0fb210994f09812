package suggest

import (
	"bytes"
	"fmt"
	"html/template"

	"folio/internal/editor"
)

// EmptyText is shown when a session has no candidates.
const EmptyText = "No articles found"

// ActionKind is what a handled key asks the machine to do.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionMove
	ActionSelect
)

// ListAction is the result of a key handled by the list.
type ListAction struct {
	Kind  ActionKind
	Index int
}

// ListView renders candidates and interprets navigation keys. It holds no
// state of its own; everything comes from Props.
type ListView struct {
	tmpl *template.Template
}

const listTemplate = `<div class="mention-list">
{{- if .Items}}
{{- range $i, $c := .Items}}
<button type="button" class="mention-list-item{{if eq $i $.Selected}} mention-list-item-selected{{end}}" data-index="{{$i}}" data-id="{{$c.ID}}"><div class="mention-list-item-title">{{$c.Title}}</div><div class="mention-list-item-category">{{$c.Category}}</div></button>
{{- end}}
{{- else}}
<div class="mention-list-item mention-list-empty">{{.Empty}}</div>
{{- end}}
</div>`

// DefaultView is the list used by machines built without WithView.
var DefaultView = NewListView()

// NewListView parses the list template.
func NewListView() ListView {
	return ListView{tmpl: template.Must(template.New("mention-list").Parse(listTemplate))}
}

// HandleKey maps ArrowUp, ArrowDown and Enter onto list actions, wrapping
// around at both ends. The keys are consumed even when there is nothing to
// move to or select.
func (v ListView) HandleKey(p Props, key editor.Key) (ListAction, bool) {
	n := len(p.Items)
	switch key {
	case editor.KeyArrowUp:
		if n == 0 {
			return ListAction{}, true
		}
		return ListAction{Kind: ActionMove, Index: (p.Selected - 1 + n) % n}, true
	case editor.KeyArrowDown:
		if n == 0 {
			return ListAction{}, true
		}
		return ListAction{Kind: ActionMove, Index: (p.Selected + 1) % n}, true
	case editor.KeyEnter:
		if n == 0 || p.Selected < 0 || p.Selected >= n {
			return ListAction{}, true
		}
		return ListAction{Kind: ActionSelect, Index: p.Selected}, true
	}
	return ListAction{}, false
}

// Render returns the list markup for p.
func (v ListView) Render(p Props) (template.HTML, error) {
	var buf bytes.Buffer
	data := struct {
		Props
		Empty string
	}{Props: p, Empty: EmptyText}
	if err := v.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render mention list: %w", err)
	}
	return template.HTML(buf.String()), nil
}
