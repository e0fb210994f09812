package editor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/content"
)

var schema = content.MustSchema(content.BaseSpecs()...)

type recorder struct {
	consume map[Key]bool
	keys    []Key
	updates []State
}

func (r *recorder) KeyDown(_ *Editor, key Key) bool {
	r.keys = append(r.keys, key)
	return r.consume[key]
}

func (r *recorder) Update(_ *Editor, prev State) {
	r.updates = append(r.updates, prev)
}

func text(s string) content.Node { return content.Text(s) }

func TestNewPlacesCursorInFirstTextblock(t *testing.T) {
	ed, err := New(schema, content.Doc(content.BulletList(content.ListItem(content.Paragraph(text("x"))))))
	require.NoError(t, err)
	assert.Equal(t, 3, ed.Cursor())

	_, err = New(schema, content.Node{Type: content.TypeDoc, Content: []content.Node{text("loose")}})
	assert.True(t, errors.Is(err, content.ErrContentRule))
}

func TestTypingAndDeleting(t *testing.T) {
	ed, err := New(schema, content.Doc(content.Paragraph(text("ab"))))
	require.NoError(t, err)
	require.NoError(t, ed.SetCursor(3))

	require.NoError(t, ed.Type("cd"))
	assert.True(t, content.Equal(content.Doc(content.Paragraph(text("abcd"))), ed.Doc()))
	assert.Equal(t, 5, ed.Cursor())

	assert.True(t, ed.KeyDown(KeyBackspace))
	assert.True(t, content.Equal(content.Doc(content.Paragraph(text("abc"))), ed.Doc()))
	assert.Equal(t, 4, ed.Cursor())

	assert.True(t, ed.KeyDown(KeyEnter))
	assert.True(t, content.Equal(content.Doc(content.Paragraph(text("abc")), content.Paragraph()), ed.Doc()))
	assert.Equal(t, 6, ed.Cursor())

	assert.True(t, ed.KeyDown(KeyBackspace))
	assert.True(t, content.Equal(content.Doc(content.Paragraph(text("abc"))), ed.Doc()))
	assert.Equal(t, 4, ed.Cursor())

	assert.True(t, ed.KeyDown(KeyArrowLeft))
	assert.Equal(t, 3, ed.Cursor())
	assert.True(t, ed.KeyDown(KeyDelete))
	assert.True(t, content.Equal(content.Doc(content.Paragraph(text("ab"))), ed.Doc()))
}

func TestTypedTextInheritsMarks(t *testing.T) {
	bold := []content.Mark{{Type: content.MarkBold}}
	ed, err := New(schema, content.Doc(content.Paragraph(content.TextWithMarks("ab", bold))))
	require.NoError(t, err)
	require.NoError(t, ed.SetCursor(3))
	require.NoError(t, ed.Type("c"))
	assert.True(t, content.Equal(content.Doc(content.Paragraph(content.TextWithMarks("abc", bold))), ed.Doc()))
}

func TestForwardDeleteJoinsNextBlock(t *testing.T) {
	ed, err := New(schema, content.Doc(content.Paragraph(text("ab")), content.Paragraph(text("cd"))))
	require.NoError(t, err)
	require.NoError(t, ed.SetCursor(3))
	assert.True(t, ed.KeyDown(KeyDelete))
	assert.True(t, content.Equal(content.Doc(content.Paragraph(text("abcd"))), ed.Doc()))
	assert.Equal(t, 3, ed.Cursor())
}

func TestArrowsSkipBlockBoundaries(t *testing.T) {
	ed, err := New(schema, content.Doc(content.Paragraph(text("ab")), content.Paragraph(text("cd"))))
	require.NoError(t, err)
	require.NoError(t, ed.SetCursor(3))
	ed.KeyDown(KeyArrowRight)
	assert.Equal(t, 5, ed.Cursor())
	ed.KeyDown(KeyArrowLeft)
	assert.Equal(t, 3, ed.Cursor())
	ed.KeyDown(KeyArrowDown)
	assert.Equal(t, 5, ed.Cursor())
	ed.KeyDown(KeyArrowUp)
	assert.Equal(t, 1, ed.Cursor())
}

func TestDispatchIsAtomic(t *testing.T) {
	rec := &recorder{}
	ed, err := New(schema, content.Doc(content.Paragraph(text("hello"))), rec)
	require.NoError(t, err)
	before := ed.State()

	tr := ed.Tr().Delete(1, 3).ReplaceWith(1, 50, text("x"))
	require.Error(t, tr.Err())
	require.Error(t, ed.Dispatch(tr))
	assert.True(t, content.Equal(before.Doc, ed.Doc()))
	assert.Empty(t, rec.updates)

	tr = ed.Tr().Delete(1, 3).InsertText(1, "J", nil)
	require.NoError(t, ed.Dispatch(tr))
	assert.True(t, content.Equal(content.Doc(content.Paragraph(text("Jllo"))), ed.Doc()))
	require.Len(t, rec.updates, 1)
	assert.True(t, content.Equal(before.Doc, rec.updates[0].Doc))
}

func TestCursorMustLandInTextblock(t *testing.T) {
	ed, err := New(schema, content.Doc(content.Paragraph(text("ab")), content.Paragraph(text("cd"))))
	require.NoError(t, err)
	err = ed.SetCursor(4)
	assert.True(t, errors.Is(err, content.ErrInvalidPosition))
	assert.Equal(t, 1, ed.Cursor())
}

func TestPluginsConsumeKeysFirst(t *testing.T) {
	first := &recorder{consume: map[Key]bool{KeyEnter: true}}
	second := &recorder{}
	ed, err := New(schema, content.Doc(content.Paragraph(text("ab"))), first, second)
	require.NoError(t, err)

	assert.True(t, ed.KeyDown(KeyEnter))
	assert.Equal(t, []Key{KeyEnter}, first.keys)
	assert.Empty(t, second.keys)
	assert.True(t, content.Equal(content.Doc(content.Paragraph(text("ab"))), ed.Doc()))

	assert.False(t, ed.KeyDown(KeyEscape))
	assert.Equal(t, []Key{KeyEscape}, second.keys)
}

func TestReplaceWithMapsCursor(t *testing.T) {
	ed, err := New(schema, content.Doc(content.Paragraph(text("hello world"))))
	require.NoError(t, err)
	require.NoError(t, ed.SetCursor(12))
	tr := ed.Tr().ReplaceWith(1, 6, text("hi"))
	assert.Equal(t, 9, tr.Cursor())

	require.NoError(t, ed.SetCursor(3))
	tr = ed.Tr().ReplaceWith(1, 6, text("hey"))
	assert.Equal(t, 4, tr.Cursor())
}

func TestReplaceWithKeepsInputAndMergesText(t *testing.T) {
	doc := content.Doc(content.Paragraph(text("hi @ab there")))
	ed, err := New(schema, doc)
	require.NoError(t, err)

	tr := ed.Tr().ReplaceWith(4, 7, content.HardBreak(), text(" "))
	require.NoError(t, tr.Err())
	require.NoError(t, ed.Dispatch(tr))
	want := content.Doc(content.Paragraph(text("hi "), content.HardBreak(), text("  there")))
	assert.True(t, content.Equal(want, ed.Doc()), "got %+v", ed.Doc())
	assert.True(t, content.Equal(content.Doc(content.Paragraph(text("hi @ab there"))), doc))
	assert.Equal(t, 1, tr.Steps())
	assert.True(t, tr.DocChanged())
}

func TestReplaceWithRejects(t *testing.T) {
	ed, err := New(schema, content.Doc(content.Paragraph(text("ab")), content.Paragraph(text("cd"))))
	require.NoError(t, err)

	tr := ed.Tr().ReplaceWith(3, 2)
	assert.True(t, errors.Is(tr.Err(), content.ErrInvalidPosition))

	tr = ed.Tr().ReplaceWith(1, 2, content.Node{Type: "widget"})
	assert.True(t, errors.Is(tr.Err(), content.ErrContentRule))

	code, err := New(schema, content.Doc(content.CodeBlock("", "ab")))
	require.NoError(t, err)
	tr = code.Tr().ReplaceWith(1, 1, content.HardBreak())
	assert.True(t, errors.Is(tr.Err(), content.ErrContentRule))
	assert.Equal(t, 0, tr.Steps())
}

func TestSplit(t *testing.T) {
	cases := []struct {
		name   string
		doc    content.Node
		pos    int
		want   content.Node
		cursor int
	}{
		{
			name:   "paragraph",
			doc:    content.Doc(content.Paragraph(text("hello"))),
			pos:    3,
			want:   content.Doc(content.Paragraph(text("he")), content.Paragraph(text("llo"))),
			cursor: 5,
		},
		{
			name:   "end of heading",
			doc:    content.Doc(content.Heading(1, text("Title"))),
			pos:    6,
			want:   content.Doc(content.Heading(1, text("Title")), content.Paragraph()),
			cursor: 8,
		},
		{
			name:   "list item",
			doc:    content.Doc(content.BulletList(content.ListItem(content.Paragraph(text("ab"))))),
			pos:    4,
			want:   content.Doc(content.BulletList(content.ListItem(content.Paragraph(text("a"))), content.ListItem(content.Paragraph(text("b"))))),
			cursor: 8,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ed, err := New(schema, tc.doc)
			require.NoError(t, err)
			tr := ed.Tr().Split(tc.pos)
			require.NoError(t, ed.Dispatch(tr))
			assert.True(t, content.Equal(tc.want, ed.Doc()), "got %+v", ed.Doc())
			assert.Equal(t, tc.cursor, ed.Cursor())
		})
	}

	ed, err := New(schema, content.Doc(content.CodeBlock("", "ab")))
	require.NoError(t, err)
	assert.True(t, errors.Is(ed.Tr().Split(2).Err(), content.ErrInvalidPosition))
}

func TestJoinBackward(t *testing.T) {
	ed, err := New(schema, content.Doc(content.Paragraph(text("ab")), content.Paragraph(text("cd"))))
	require.NoError(t, err)

	tr := ed.Tr().JoinBackward(5)
	require.Equal(t, 1, tr.Steps())
	require.NoError(t, ed.Dispatch(tr))
	assert.True(t, content.Equal(content.Doc(content.Paragraph(text("abcd"))), ed.Doc()))
	assert.Equal(t, 3, ed.Cursor())

	assert.Equal(t, 0, ed.Tr().JoinBackward(1).Steps())
	assert.Equal(t, 0, ed.Tr().JoinBackward(2).Steps())
}

func TestResolvePos(t *testing.T) {
	ed, err := New(schema, content.Doc(content.Paragraph(text("hello")), content.Paragraph(text("world"))))
	require.NoError(t, err)

	rp, err := ed.ResolvePos(3)
	require.NoError(t, err)
	assert.Equal(t, 1, rp.Depth)
	assert.Equal(t, 2, rp.ParentOffset)
	assert.Equal(t, "paragraph", rp.Parent().Type.Name)
	require.NotNil(t, rp.NodeBefore())
	assert.Equal(t, "he", rp.NodeBefore().TextContent())

	_, err = ed.ResolvePos(15)
	assert.True(t, errors.Is(err, content.ErrInvalidPosition))
	_, err = ed.ResolvePos(-1)
	assert.True(t, errors.Is(err, content.ErrInvalidPosition))
	assert.NotNil(t, ed.Resolved())
	assert.NotNil(t, ed.Node())
}
