// Package suggest implements the mention suggestion session: trigger
// detection, last-query-wins result handling, keyboard selection and the
// atomic commit of a mention into the document.
package suggest

import (
	"fmt"
	"log"
	"slices"
	"unicode"

	"folio/internal/content"
	"folio/internal/editor"
	"folio/internal/mention"
	"folio/internal/search"
)

// Phase is the machine's state.
type Phase int

const (
	Idle Phase = iota
	Composing
	Resolved
	Cancelled
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Composing:
		return "composing"
	case Resolved:
		return "resolved"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Session is the state of one trigger occurrence. Range spans the trigger
// and the query typed after it.
type Session struct {
	ID       uint64
	Query    string
	Range    content.Range
	Items    []search.Candidate
	Selected int
	Loading  bool
}

// Request asks the host to search for Query on behalf of a session.
type Request struct {
	Session uint64
	Seq     uint64
	Query   string
}

// Resolution carries the result of a Request back to the machine.
type Resolution struct {
	Request Request
	Items   []search.Candidate
}

// Props is what the candidate list renders.
type Props struct {
	Active   bool
	Query    string
	Range    content.Range
	Items    []search.Candidate
	Selected int
	Loading  bool
}

// Outcome describes how the last session ended.
type Outcome struct {
	Phase     Phase
	Session   uint64
	Candidate search.Candidate
	Range     content.Range
}

// Hooks observe the session lifecycle. Any hook may be nil.
type Hooks struct {
	OnStart  func(Props)
	OnUpdate func(Props)
	OnExit   func(Outcome)
}

// Option configures a Machine.
type Option func(*Machine)

// WithTrigger sets the trigger character.
func WithTrigger(r rune) Option {
	return func(m *Machine) { m.trigger = r }
}

// WithHooks installs lifecycle hooks.
func WithHooks(h Hooks) Option {
	return func(m *Machine) { m.hooks = h }
}

// WithView replaces the candidate list view consulted for key handling.
func WithView(v ListView) Option {
	return func(m *Machine) { m.view = v }
}

// Machine is an editor.Plugin driving mention suggestions. It performs no
// I/O: searches are emitted as Requests and answered through Resolve, all
// on the editor's event loop.
type Machine struct {
	trigger rune
	hooks   Hooks
	view    ListView

	phase   Phase
	session *Session
	nextID  uint64
	seq     uint64
	pending []Request
	// dismissed is the trigger position closed with Escape, or -1.
	dismissed int
	last      Outcome
}

var _ editor.Plugin = (*Machine)(nil)

// New returns an idle machine.
func New(opts ...Option) *Machine {
	m := &Machine{trigger: mention.Trigger, view: DefaultView, dismissed: -1}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Phase returns Composing while a session is active, else Idle.
func (m *Machine) Phase() Phase { return m.phase }

// Outcome reports how the most recent session ended.
func (m *Machine) Outcome() Outcome { return m.last }

// Session returns a copy of the active session.
func (m *Machine) Session() (Session, bool) {
	if m.session == nil {
		return Session{}, false
	}
	s := *m.session
	s.Items = slices.Clone(m.session.Items)
	return s, true
}

// Props returns the current list props.
func (m *Machine) Props() Props {
	if m.session == nil {
		return Props{}
	}
	return Props{
		Active:   true,
		Query:    m.session.Query,
		Range:    m.session.Range,
		Items:    slices.Clone(m.session.Items),
		Selected: m.session.Selected,
		Loading:  m.session.Loading,
	}
}

// TakeRequests returns and clears the searches issued since the last call.
func (m *Machine) TakeRequests() []Request {
	out := m.pending
	m.pending = nil
	return out
}

// Resolve applies a search result. Results for a finished session or for a
// query that is no longer the live one are dropped. It reports whether the
// result was applied.
func (m *Machine) Resolve(res Resolution) bool {
	s := m.session
	if s == nil || res.Request.Session != s.ID || res.Request.Query != s.Query {
		return false
	}
	items := res.Items
	if len(items) > search.ResultLimit {
		items = items[:search.ResultLimit]
	}
	s.Items = append([]search.Candidate{}, items...)
	s.Selected = 0
	s.Loading = false
	m.notifyUpdate()
	return true
}

// Update implements editor.Plugin; it re-evaluates the session against the
// new cursor position after every transaction.
func (m *Machine) Update(ed *editor.Editor, _ editor.State) {
	m.sync(ed)
}

// KeyDown implements editor.Plugin. While a session is active Escape,
// Enter and the vertical arrows are always consumed.
func (m *Machine) KeyDown(ed *editor.Editor, key editor.Key) bool {
	if m.session == nil {
		return false
	}
	if key == editor.KeyEscape {
		m.dismissed = m.session.Range.From
		m.exit(Outcome{Phase: Cancelled, Session: m.session.ID, Range: m.session.Range})
		return true
	}
	action, consumed := m.view.HandleKey(m.Props(), key)
	if !consumed {
		return false
	}
	switch action.Kind {
	case ActionMove:
		m.session.Selected = action.Index
		m.notifyUpdate()
	case ActionSelect:
		if err := m.commit(ed, action.Index); err != nil {
			log.Print(err)
		}
	}
	return true
}

// Select commits the item at index, as a pointer click on the list would.
func (m *Machine) Select(ed *editor.Editor, index int) error {
	if m.session == nil {
		return fmt.Errorf("suggest: no active session")
	}
	if index < 0 || index >= len(m.session.Items) {
		return fmt.Errorf("suggest: item %d out of range", index)
	}
	return m.commit(ed, index)
}

// commit ends the session, then replaces the trigger and query with the
// mention and a trailing space in one transaction.
func (m *Machine) commit(ed *editor.Editor, index int) error {
	s := m.session
	c := s.Items[index]
	rng := s.Range
	m.exit(Outcome{Phase: Resolved, Session: s.ID, Candidate: c, Range: rng})

	node := mention.New(mention.FromCandidate(c))
	tr := ed.Tr().
		ReplaceWith(rng.From, rng.To, node, content.Text(" ")).
		SetCursor(rng.From + 2)
	if err := ed.Dispatch(tr); err != nil {
		m.last.Phase = Cancelled
		return fmt.Errorf("suggest: insert mention: %w", err)
	}
	return nil
}

type match struct {
	rng   content.Range
	query string
}

// detect finds the trigger occurrence the cursor is composing. The text
// before the cursor must hold the trigger at the start of a line or after
// whitespace, followed by a query without whitespace, in a parent that
// accepts mention nodes.
func (m *Machine) detect(ed *editor.Editor) (match, bool) {
	rp := ed.Resolved()
	mentionType := ed.Schema().NodeType(content.TypeMention)
	if rp == nil || mentionType == nil {
		return match{}, false
	}
	if rp.Parent().Type.ContentMatch.MatchType(mentionType) == nil {
		return match{}, false
	}
	before := rp.NodeBefore()
	if before == nil || !before.IsText() {
		return match{}, false
	}
	runes := []rune(before.TextContent())
	at := -1
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == m.trigger {
			at = i
			break
		}
	}
	if at < 0 {
		return match{}, false
	}
	if at > 0 && !unicode.IsSpace(runes[at-1]) {
		return match{}, false
	}
	if at == 0 && !m.lineStart(ed, ed.Cursor()-len(runes)) {
		return match{}, false
	}
	query := runes[at+1:]
	for _, r := range query {
		if unicode.IsSpace(r) {
			return match{}, false
		}
	}
	from := ed.Cursor() - len(runes) + at
	return match{rng: content.Range{From: from, To: ed.Cursor()}, query: string(query)}, true
}

// lineStart reports whether pos starts a block or follows a hard break.
func (m *Machine) lineStart(ed *editor.Editor, pos int) bool {
	rp, err := ed.ResolvePos(pos)
	if err != nil {
		return false
	}
	before := rp.NodeBefore()
	return before == nil || content.NodeType(before.Type.Name) == content.TypeHardBreak
}

func (m *Machine) sync(ed *editor.Editor) {
	found, ok := m.detect(ed)
	if !ok {
		m.dismissed = -1
		if m.session != nil {
			m.exit(Outcome{Phase: Cancelled, Session: m.session.ID, Range: m.session.Range})
		}
		return
	}
	if m.dismissed >= 0 {
		if m.dismissed == found.rng.From {
			return
		}
		m.dismissed = -1
	}
	if m.session != nil && m.session.Range.From != found.rng.From {
		m.exit(Outcome{Phase: Cancelled, Session: m.session.ID, Range: m.session.Range})
	}
	if m.session == nil {
		m.nextID++
		m.session = &Session{ID: m.nextID, Query: found.query, Range: found.rng}
		m.phase = Composing
		m.search()
		if m.hooks.OnStart != nil {
			m.hooks.OnStart(m.Props())
		}
		return
	}
	changed := m.session.Query != found.query
	m.session.Range = found.rng
	if changed {
		m.session.Query = found.query
		m.search()
	}
	m.notifyUpdate()
}

// search issues a request for the live query. An empty query shows the
// empty state without searching.
func (m *Machine) search() {
	s := m.session
	if s.Query == "" {
		s.Items = []search.Candidate{}
		s.Selected = 0
		s.Loading = false
		return
	}
	m.seq++
	s.Loading = true
	m.pending = append(m.pending, Request{Session: s.ID, Seq: m.seq, Query: s.Query})
}

func (m *Machine) exit(o Outcome) {
	m.session = nil
	m.phase = Idle
	m.pending = nil
	m.last = o
	if m.hooks.OnExit != nil {
		m.hooks.OnExit(o)
	}
}

func (m *Machine) notifyUpdate() {
	if m.hooks.OnUpdate != nil && m.session != nil {
		m.hooks.OnUpdate(m.Props())
	}
}
