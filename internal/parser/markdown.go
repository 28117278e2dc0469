package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gtext "github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/starford/dagaz/internal/apperr"
)

var markdown = goldmark.New()

// parseMarkdown extracts a record from a Markdown document: the event
// is the literal text of the first level-1 heading, and the raw field
// mapping comes from the last yaml-tagged fenced code block in
// document order. Either one missing fails the record.
func parseMarkdown(data []byte) (string, *yaml.Node, error) {
	root := markdown.Parser().Parse(gtext.NewReader(data))

	var event string
	haveEvent := false
	var lastYAML *ast.FencedCodeBlock

	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Heading:
			if v.Level == 1 && !haveEvent {
				event = headingText(v, data)
				haveEvent = true
			}
		case *ast.FencedCodeBlock:
			if string(v.Language(data)) == "yaml" {
				lastYAML = v
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", nil, err
	}

	if !haveEvent || strings.TrimSpace(event) == "" {
		return "", nil, fmt.Errorf("parser: %w: no level-1 heading", apperr.ErrMalformedRecord)
	}
	if lastYAML == nil {
		return "", nil, fmt.Errorf("parser: %w: no yaml code block", apperr.ErrMalformedRecord)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(blockText(lastYAML, data), &doc); err != nil {
		return "", nil, fmt.Errorf("parser: %w: invalid yaml block: %v", apperr.ErrMalformedRecord, err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return "", nil, fmt.Errorf("parser: %w: yaml block is not a mapping", apperr.ErrMalformedRecord)
	}
	return event, doc.Content[0], nil
}

// headingText concatenates the text children of a heading node.
func headingText(n ast.Node, src []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(src))
		}
	}
	return b.String()
}

// blockText concatenates the source lines of a fenced code block.
func blockText(v *ast.FencedCodeBlock, src []byte) []byte {
	var b bytes.Buffer
	lines := v.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
	return b.Bytes()
}

// ReplaceLastYAMLBlock splices newBlock into the last yaml-tagged
// fenced code block of doc, leaving the rest of the document
// byte-for-byte untouched. Used by round-trip mutations of Markdown
// records.
func ReplaceLastYAMLBlock(doc, newBlock []byte) ([]byte, error) {
	root := markdown.Parser().Parse(gtext.NewReader(doc))

	var last *ast.FencedCodeBlock
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if v, ok := n.(*ast.FencedCodeBlock); ok && string(v.Language(doc)) == "yaml" {
				last = v
			}
		}
		return ast.WalkContinue, nil
	})
	if last == nil {
		return nil, fmt.Errorf("parser: %w: no yaml code block", apperr.ErrMalformedRecord)
	}
	lines := last.Lines()
	if lines.Len() == 0 {
		return nil, fmt.Errorf("parser: %w: empty yaml code block", apperr.ErrMalformedRecord)
	}
	start := lines.At(0).Start
	stop := lines.At(lines.Len() - 1).Stop

	if len(newBlock) > 0 && newBlock[len(newBlock)-1] != '\n' {
		newBlock = append(newBlock, '\n')
	}
	out := make([]byte, 0, len(doc)-(stop-start)+len(newBlock))
	out = append(out, doc[:start]...)
	out = append(out, newBlock...)
	out = append(out, doc[stop:]...)
	return out, nil
}
