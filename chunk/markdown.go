package chunk

import (
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Markdown splits a markdown document into heading-delimited sections
// before applying the plain-text size constraints to each section. A
// section keeps its heading line, so chunks stay self-describing when
// they come back as search context.
type Markdown struct {
	text   *Text
	parser goldmark.Markdown
}

// NewMarkdown creates a Markdown splitter. The options shape the size
// constraints applied within each section.
func NewMarkdown(optFns ...func(o *TextOptions)) *Markdown {
	return &Markdown{
		text:   NewText(optFns...),
		parser: goldmark.New(),
	}
}

// Split implements Splitter.
func (m *Markdown) Split(doc string) []string {
	var chunks []string

	for _, section := range m.sections(doc) {
		chunks = append(chunks, m.text.Split(section)...)
	}

	return chunks
}

// sections slices the document at heading boundaries using the parsed
// AST's source offsets. A document without headings is one section.
func (m *Markdown) sections(doc string) []string {
	source := []byte(doc)
	root := m.parser.Parser().Parse(text.NewReader(source))

	starts := headingStarts(root, source)
	if len(starts) == 0 {
		return []string{doc}
	}

	var sections []string

	if starts[0] > 0 {
		sections = append(sections, doc[:starts[0]])
	}

	for i, start := range starts {
		end := len(doc)
		if i+1 < len(starts) {
			end = starts[i+1]
		}

		sections = append(sections, doc[start:end])
	}

	return sections
}

// headingStarts returns the byte offset of the first character of each
// heading line, in document order.
func headingStarts(root ast.Node, source []byte) []int {
	var starts []int

	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		heading, ok := n.(*ast.Heading)
		if !ok || heading.Lines().Len() == 0 {
			return ast.WalkContinue, nil
		}

		// The segment starts at the heading text; back up over the
		// "#" markers to the beginning of the line.
		start := heading.Lines().At(0).Start
		if idx := strings.LastIndexByte(string(source[:start]), '\n'); idx >= 0 {
			start = idx + 1
		} else {
			start = 0
		}

		starts = append(starts, start)

		return ast.WalkSkipChildren, nil
	})

	sort.Ints(starts)

	return starts
}
