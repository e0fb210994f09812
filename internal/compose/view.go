package compose

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"folio/internal/content"
	"folio/internal/mention"
)

// renderDoc draws the document one textblock per line with the cursor
// marked in place.
func (m *Model) renderDoc() string {
	var lines []string
	m.blockLines(m.ed.Doc().Content, 0, "", &lines)
	return strings.Join(lines, "\n")
}

// blockLines appends the lines of nodes, whose first node opens at pos.
func (m *Model) blockLines(nodes []content.Node, pos int, indent string, out *[]string) {
	schema := m.ed.Schema()
	for _, n := range nodes {
		switch {
		case schema.IsTextblock(n.Type):
			lines := strings.Split(m.inline(n, pos+1), "\n")
			for j, line := range lines {
				prefix := indent + linePrefix(n)
				if j > 0 {
					prefix = indent + strings.Repeat(" ", len(linePrefix(n)))
				}
				*out = append(*out, prefix+line)
			}
		case n.Type == content.TypeHorizontalRule:
			*out = append(*out, indent+faintStyle.Render(strings.Repeat("─", 20)))
		case n.Type == content.TypeImage:
			*out = append(*out, indent+faintStyle.Render("[image "+n.AttrString("src")+"]"))
		case n.Type == content.TypeBlockquote:
			m.blockLines(n.Content, pos+1, indent+"│ ", out)
		case n.Type == content.TypeBulletList, n.Type == content.TypeOrderedList:
			m.listLines(n, pos+1, indent, out)
		default:
			m.blockLines(n.Content, pos+1, indent, out)
		}
		pos += n.Size()
	}
}

func (m *Model) listLines(list content.Node, pos int, indent string, out *[]string) {
	for i, item := range list.Content {
		marker := "• "
		if list.Type == content.TypeOrderedList {
			marker = strconv.Itoa(list.AttrInt("start", 1)+i) + ". "
		}
		var lines []string
		m.blockLines(item.Content, pos+1, "", &lines)
		pad := strings.Repeat(" ", len([]rune(marker)))
		for j, line := range lines {
			if j == 0 {
				*out = append(*out, indent+marker+line)
				continue
			}
			*out = append(*out, indent+pad+line)
		}
		pos += item.Size()
	}
}

func linePrefix(n content.Node) string {
	switch n.Type {
	case content.TypeHeading:
		return strings.Repeat("#", n.AttrInt("level", 1)) + " "
	case content.TypeCodeBlock:
		return "    "
	}
	return ""
}

// inline renders the children of textblock n, whose content starts at
// start.
func (m *Model) inline(n content.Node, start int) string {
	cursor := m.ed.Cursor()
	var b strings.Builder
	pos := start
	mark := func() { b.WriteString(cursorStyle.Render(cursorMark)) }
	for _, child := range n.Content {
		if child.IsText() {
			runes := []rune(child.Text)
			for i, r := range runes {
				if pos+i == cursor {
					mark()
				}
				b.WriteRune(r)
			}
			pos += len(runes)
			continue
		}
		if pos == cursor {
			mark()
		}
		switch child.Type {
		case content.TypeMention:
			b.WriteString(mentionStyle.Render(mention.RenderText(child)))
		case content.TypeHardBreak:
			b.WriteString("\n")
		}
		pos++
	}
	if pos == cursor {
		mark()
	}
	return b.String()
}

// Run starts an interactive composer and returns it once the program
// exits.
func Run(m *Model, opts ...tea.ProgramOption) (*Model, error) {
	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil {
		return nil, err
	}
	return final.(*Model), nil
}
