package content

// Doc builds a doc node. An empty doc gets a single empty paragraph so the
// cursor always has a textblock to sit in.
func Doc(blocks ...Node) Node {
	if len(blocks) == 0 {
		blocks = []Node{Paragraph()}
	}
	return Node{Type: TypeDoc, Content: blocks}
}

// Paragraph builds a paragraph.
func Paragraph(inline ...Node) Node {
	return Node{Type: TypeParagraph, Content: nonEmpty(inline)}
}

// Heading builds a heading of the given level.
func Heading(level int, inline ...Node) Node {
	return Node{Type: TypeHeading, Attrs: map[string]any{"level": level}, Content: nonEmpty(inline)}
}

// Blockquote builds a blockquote.
func Blockquote(blocks ...Node) Node {
	return Node{Type: TypeBlockquote, Content: blocks}
}

// BulletList builds a bullet list.
func BulletList(items ...Node) Node {
	return Node{Type: TypeBulletList, Content: items}
}

// OrderedList builds an ordered list.
func OrderedList(items ...Node) Node {
	return Node{Type: TypeOrderedList, Content: items}
}

// ListItem builds a list item.
func ListItem(blocks ...Node) Node {
	return Node{Type: TypeListItem, Content: blocks}
}

// CodeBlock builds a code block; language may be empty.
func CodeBlock(language, code string) Node {
	n := Node{Type: TypeCodeBlock}
	if language != "" {
		n.Attrs = map[string]any{"language": language}
	}
	if code != "" {
		n.Content = []Node{Text(code)}
	}
	return n
}

// Image builds an image node.
func Image(src, alt string) Node {
	attrs := map[string]any{"src": src}
	if alt != "" {
		attrs["alt"] = alt
	}
	return Node{Type: TypeImage, Attrs: attrs}
}

// HorizontalRule builds a horizontal rule.
func HorizontalRule() Node { return Node{Type: TypeHorizontalRule} }

// HardBreak builds a line break.
func HardBreak() Node { return Node{Type: TypeHardBreak} }

// Text builds an unmarked text node.
func Text(s string) Node { return Node{Type: TypeText, Text: s} }

// TextWithMarks builds a text node carrying marks.
func TextWithMarks(s string, marks []Mark) Node {
	n := Node{Type: TypeText, Text: s}
	if len(marks) > 0 {
		n.Marks = append([]Mark(nil), marks...)
	}
	return n
}

// Link builds a link mark.
func Link(href string) Mark {
	return Mark{Type: MarkLink, Attrs: map[string]any{"href": href}}
}

func nonEmpty(inline []Node) []Node {
	var out []Node
	for _, n := range inline {
		if n.IsText() && n.Text == "" {
			continue
		}
		out = append(out, n)
	}
	return out
}
