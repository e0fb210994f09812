// Package compose is a terminal post composer. It hosts the editor and the
// mention suggestion machine in a bubbletea program and runs candidate
// searches as commands off the event loop.
package compose

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"folio/internal/content"
	"folio/internal/editor"
	"folio/internal/mention"
	"folio/internal/search"
	"folio/internal/suggest"
)

const searchTimeout = 5 * time.Second

var (
	cursorStyle   = lipgloss.NewStyle().Reverse(true)
	mentionStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)
	listStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	faintStyle    = lipgloss.NewStyle().Faint(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

const cursorMark = "▏"

// resultMsg carries a finished search back to the event loop.
type resultMsg suggest.Resolution

// Model is the composer's tea.Model.
type Model struct {
	ed       *editor.Editor
	machine  *suggest.Machine
	searcher search.Searcher
	width    int
	saved    bool
	err      error
}

var _ tea.Model = (*Model)(nil)

// New returns a composer over doc. opts configure the suggestion machine.
func New(searcher search.Searcher, doc content.Node, opts ...suggest.Option) (*Model, error) {
	machine := suggest.New(opts...)
	ed, err := editor.New(mention.MustSchema(), doc, machine, mention.Keymap{})
	if err != nil {
		return nil, fmt.Errorf("compose: %w", err)
	}
	return &Model{ed: ed, machine: machine, searcher: searcher, width: 80}, nil
}

// Doc returns the document being edited.
func (m *Model) Doc() content.Node { return m.ed.Doc() }

// Saved reports whether the user left with ctrl+s.
func (m *Model) Saved() bool { return m.saved }

// Machine exposes the suggestion machine.
func (m *Model) Machine() *suggest.Machine { return m.machine }

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case resultMsg:
		m.machine.Resolve(suggest.Resolution(msg))
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyCtrlS:
		m.saved = true
		return m, tea.Quit
	case tea.KeyRunes:
		m.err = m.ed.Type(string(msg.Runes))
	case tea.KeySpace:
		m.err = m.ed.Type(" ")
	default:
		if key, ok := editorKey(msg.Type); ok {
			m.ed.KeyDown(key)
		}
	}
	return m, m.searches()
}

func editorKey(t tea.KeyType) (editor.Key, bool) {
	switch t {
	case tea.KeyUp:
		return editor.KeyArrowUp, true
	case tea.KeyDown:
		return editor.KeyArrowDown, true
	case tea.KeyLeft:
		return editor.KeyArrowLeft, true
	case tea.KeyRight:
		return editor.KeyArrowRight, true
	case tea.KeyEnter:
		return editor.KeyEnter, true
	case tea.KeyEsc:
		return editor.KeyEscape, true
	case tea.KeyBackspace:
		return editor.KeyBackspace, true
	case tea.KeyDelete:
		return editor.KeyDelete, true
	case tea.KeyTab:
		return editor.KeyTab, true
	}
	return "", false
}

// searches turns the machine's pending requests into commands.
func (m *Model) searches() tea.Cmd {
	reqs := m.machine.TakeRequests()
	if len(reqs) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(reqs))
	for _, req := range reqs {
		cmds = append(cmds, m.fetch(req))
	}
	return tea.Batch(cmds...)
}

func (m *Model) fetch(req suggest.Request) tea.Cmd {
	searcher := m.searcher
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
		defer cancel()
		return resultMsg(suggest.Fetch(ctx, searcher, req))
	}
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderDoc())
	b.WriteString("\n")
	if props := m.machine.Props(); props.Active {
		b.WriteString(m.renderList(props))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(faintStyle.Render("ctrl+s save · ctrl+c quit · @ mention"))
	return b.String()
}

func (m *Model) renderList(p suggest.Props) string {
	var lines []string
	switch {
	case p.Loading && len(p.Items) == 0:
		lines = append(lines, faintStyle.Render("Searching…"))
	case len(p.Items) == 0:
		lines = append(lines, faintStyle.Render(suggest.EmptyText))
	}
	for i, item := range p.Items {
		line := item.Title + " " + faintStyle.Render(item.Category)
		if i == p.Selected {
			line = selectedStyle.Render(item.Title) + " " + faintStyle.Render(item.Category)
		}
		lines = append(lines, line)
	}
	return listStyle.Render(strings.Join(lines, "\n"))
}
