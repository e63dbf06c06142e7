package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"
)

// Converted markdown may carry escaped brackets, so every marker accepts an
// optional backslash before each bracket.
//
//nolint:gochecknoglobals // compiled once
var citationMarkers = []*regexp.Regexp{
	regexp.MustCompile(`\\?\[\d+\\?\]`),
	regexp.MustCompile(`(?i)\\?\[citation needed\\?\]`),
	regexp.MustCompile(`(?i)\\?\[clarification needed\\?\]`),
	regexp.MustCompile(`(?i)\\?\[(when|who|where|which|by whom)\?\\?\]`),
	regexp.MustCompile(`(?i)\\?\[edit\\?\]`),
	regexp.MustCompile(`(?i)\\?\[note \d+\\?\]`),
}

var (
	innerSpaces = regexp.MustCompile(`[ \t]{2,}`)
	blankRuns   = regexp.MustCompile(`\n{3,}`)
)

// cleanup strips citation markers and normalizes whitespace. Leading
// indentation is preserved so nested lists and code stay intact.
func cleanup(md string) string {
	md = strings.ReplaceAll(md, "\r\n", "\n")
	for _, marker := range citationMarkers {
		md = marker.ReplaceAllString(md, "")
	}

	lines := strings.Split(md, "\n")
	for i, line := range lines {
		body := strings.TrimLeft(line, " \t")
		indent := line[:len(line)-len(body)]
		body = strings.TrimRightFunc(innerSpaces.ReplaceAllString(body, " "), unicode.IsSpace)
		if body == "" {
			lines[i] = ""
			continue
		}
		lines[i] = indent + body
	}

	md = blankRuns.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	return md + "\n"
}

// MeaningfulLength counts non-whitespace characters in the text, inline code
// and code blocks of a markdown document.
func MeaningfulLength(md []byte) int {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	doc := markdown.Parse(md, p)

	count := 0
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		switch node.(type) {
		case *ast.Text, *ast.Code, *ast.CodeBlock:
			if leaf := node.AsLeaf(); leaf != nil {
				for _, r := range string(leaf.Literal) {
					if !unicode.IsSpace(r) {
						count++
					}
				}
			}
		}
		return ast.GoToNext
	})
	return count
}
