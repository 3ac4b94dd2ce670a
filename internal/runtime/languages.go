package runtime

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	ts "github.com/smacker/go-tree-sitter/typescript/typescript"
)

// ErrUnsupportedLanguage is returned when no grammar is registered for a
// language name.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Grammar is a compiled-in tree-sitter grammar together with the facts the
// extractor needs about it.
type Grammar struct {
	// Name is the canonical language name.
	Name string
	// Extensions are the default file extensions, without the leading dot.
	Extensions []string
	// CommentKinds are the node types the grammar uses for comments.
	CommentKinds []string

	language func() *sitter.Language
}

// Language returns the tree-sitter language.
func (g *Grammar) Language() *sitter.Language {
	return g.language()
}

// IsComment reports whether kind is one of the grammar's comment node types.
func (g *Grammar) IsComment(kind string) bool {
	for _, k := range g.CommentKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// defaultCommentKinds covers grammars with a single generic comment kind and
// those that split line and block comments.
var defaultCommentKinds = []string{"comment", "line_comment", "block_comment"}

// grammars is keyed by canonical language name. Lazily initialized on first
// call via sync.Once.
var (
	grammars     map[string]*Grammar
	grammarsOnce sync.Once
)

// aliases maps short names accepted on the command line to canonical names.
var aliases = map[string]string{
	"js":     "javascript",
	"jsx":    "javascript",
	"ts":     "typescript",
	"py":     "python",
	"rs":     "rust",
	"rb":     "ruby",
	"sh":     "bash",
	"c++":    "cpp",
	"golang": "go",
}

func initGrammars() {
	grammarsOnce.Do(func() {
		list := []*Grammar{
			{Name: "java", Extensions: []string{"java"}, language: java.GetLanguage},
			{Name: "javascript", Extensions: []string{"js", "jsx", "mjs", "cjs"}, language: javascript.GetLanguage},
			{Name: "typescript", Extensions: []string{"ts", "mts", "cts"}, language: ts.GetLanguage},
			{Name: "tsx", Extensions: []string{"tsx"}, language: tsx.GetLanguage},
			{Name: "go", Extensions: []string{"go"}, language: golang.GetLanguage},
			{Name: "python", Extensions: []string{"py"}, language: python.GetLanguage},
			{Name: "rust", Extensions: []string{"rs"}, language: rust.GetLanguage},
			{Name: "c", Extensions: []string{"c", "h"}, language: c.GetLanguage},
			{Name: "cpp", Extensions: []string{"cpp", "cc", "cxx", "hpp", "hh"}, language: cpp.GetLanguage},
			{Name: "php", Extensions: []string{"php"}, language: php.GetLanguage},
			{Name: "ruby", Extensions: []string{"rb"}, language: ruby.GetLanguage},
			{Name: "bash", Extensions: []string{"sh", "bash"}, language: bash.GetLanguage},
		}
		grammars = make(map[string]*Grammar, len(list))
		for _, g := range list {
			if g.CommentKinds == nil {
				g.CommentKinds = defaultCommentKinds
			}
			grammars[g.Name] = g
		}
	})
}

// GrammarFor returns the grammar registered for a language name or alias.
// Names are case insensitive.
func GrammarFor(name string) (*Grammar, error) {
	initGrammars()
	key := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := aliases[key]; ok {
		key = canonical
	}
	g, ok := grammars[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, name)
	}
	return g, nil
}

// Grammars returns every registered grammar sorted by name.
func Grammars() []*Grammar {
	initGrammars()
	out := make([]*Grammar, 0, len(grammars))
	for _, g := range grammars {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Parse parses src with g. The caller owns the returned tree and must Close it.
func Parse(ctx context.Context, g *Grammar, src []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(g.Language())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("runtime: parse %s: %w", g.Name, err)
	}
	return tree, nil
}
