package control

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// annotationPattern recognizes a control annotation: the token "control"
// followed by one or more whitespace-separated word tokens. The token must
// lead a line of the comment once comment punctuation is stripped, so prose
// such as "not a control comment" does not qualify.
var annotationPattern = regexp.MustCompile(`(?m)^[\s/*#!;-]*control(?:\s\w+)+`)

// controlIDPattern captures the identifiers following the control token.
// Identifiers may contain dashes and dots (HE-110, SOC2.CC6).
var controlIDPattern = regexp.MustCompile(`(?m)^[\s/*#!;-]*control((?:[ \t]+[\w][\w.-]*)+)`)

// MatchesAnnotation reports whether comment text is a control annotation.
func MatchesAnnotation(text string) bool {
	return annotationPattern.MatchString(text)
}

// ControlIDs returns the control identifiers named by an annotation, in
// order of appearance. It returns nil for text that is not an annotation.
func ControlIDs(text string) []string {
	if !MatchesAnnotation(text) {
		return nil
	}
	var ids []string
	for _, m := range controlIDPattern.FindAllStringSubmatch(text, -1) {
		for _, field := range strings.Fields(m[1]) {
			// Trailing comment delimiters are not part of an identifier.
			field = strings.TrimRight(field, "*/")
			if field != "" {
				ids = append(ids, field)
			}
		}
	}
	return ids
}

// Matcher selects control annotations from a syntax tree: comment nodes,
// by the grammar's comment kinds, whose text is an annotation.
type Matcher struct {
	isComment func(kind string) bool
}

// NewMatcher returns a Matcher accepting nodes whose kind satisfies isComment.
func NewMatcher(isComment func(kind string) bool) *Matcher {
	return &Matcher{isComment: isComment}
}

// Match reports whether a node of the given kind and text is a control
// annotation.
func (m *Matcher) Match(kind, text string) bool {
	return m.isComment(kind) && MatchesAnnotation(text)
}

// Selector returns a tree-sitter Selector that collects annotation comments
// of a tree parsed from src. Node text is only read for comment kinds.
func (m *Matcher) Selector(src []byte) Selector[*sitter.Node] {
	return func(c Cursor[*sitter.Node]) (*sitter.Node, bool) {
		if !m.isComment(c.Node.Type()) {
			return nil, false
		}
		if !MatchesAnnotation(c.Node.Content(src)) {
			return nil, false
		}
		return c.Node, true
	}
}
