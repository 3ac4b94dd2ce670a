package control

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/control/internal/runtime"
)

// fakeNode is a minimal tree for exercising the walker without a parser.
type fakeNode struct {
	name     string
	children []*fakeNode
	next     *fakeNode
}

func tree(name string, children ...*fakeNode) *fakeNode {
	n := &fakeNode{name: name, children: children}
	for i := 0; i+1 < len(children); i++ {
		children[i].next = children[i+1]
	}
	return n
}

type fakeNavigator struct{}

func (fakeNavigator) FirstChild(n *fakeNode) (*fakeNode, bool) {
	if len(n.children) == 0 {
		return nil, false
	}
	return n.children[0], true
}

func (fakeNavigator) NextSibling(n *fakeNode) (*fakeNode, bool) {
	return n.next, n.next != nil
}

func collectAll(c Cursor[*fakeNode]) (*fakeNode, bool) { return c.Node, true }

func names(nodes []*fakeNode) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, n.name)
	}
	return out
}

// =============================================================================
// Traverse over a synthetic tree
// =============================================================================

func TestTraverse_PreOrder(t *testing.T) {
	t.Parallel()
	root := tree("root",
		tree("a",
			tree("a1"),
			tree("a2", tree("a2x")),
		),
		tree("b"),
		tree("c", tree("c1")),
	)

	got := Traverse[*fakeNode](root, fakeNavigator{}, collectAll)
	assert.Equal(t, []string{"a", "a1", "a2", "a2x", "b", "c", "c1"}, names(got))
}

func TestTraverse_NeverVisitsRoot(t *testing.T) {
	t.Parallel()
	got := Traverse[*fakeNode](tree("root"), fakeNavigator{}, collectAll)
	assert.Empty(t, got)
}

func TestTraverse_NoDoubleVisits(t *testing.T) {
	t.Parallel()
	root := tree("root",
		tree("a", tree("b", tree("c", tree("d")))),
		tree("e", tree("f"), tree("g")),
	)

	seen := map[*fakeNode]int{}
	Traverse[*fakeNode](root, fakeNavigator{}, func(c Cursor[*fakeNode]) (*fakeNode, bool) {
		seen[c.Node]++
		return nil, false
	})
	assert.Len(t, seen, 7)
	for n, count := range seen {
		assert.Equal(t, 1, count, n.name)
	}
}

func TestTraverse_CursorDepthAndParent(t *testing.T) {
	t.Parallel()
	root := tree("root", tree("a", tree("a1")), tree("b"))

	depths := map[string]int{}
	parents := map[string]string{}
	Traverse[*fakeNode](root, fakeNavigator{}, func(c Cursor[*fakeNode]) (*fakeNode, bool) {
		depths[c.Node.name] = c.Depth
		parents[c.Node.name] = c.Parent.name
		return nil, false
	})

	assert.Equal(t, map[string]int{"a": 1, "a1": 2, "b": 1}, depths)
	assert.Equal(t, map[string]string{"a": "root", "a1": "a", "b": "root"}, parents)
}

func TestTraverse_SelectorMayReturnOtherNode(t *testing.T) {
	t.Parallel()
	root := tree("root", tree("a"), tree("b"), tree("c"))

	// Collect the sibling following "a".
	got := Traverse[*fakeNode](root, fakeNavigator{}, func(c Cursor[*fakeNode]) (*fakeNode, bool) {
		if c.Node.name == "a" {
			return c.Node.next, true
		}
		return nil, false
	})
	assert.Equal(t, []string{"b"}, names(got))
}

func TestTraverse_DeepTree(t *testing.T) {
	t.Parallel()
	// A chain far deeper than any recursive walk would like.
	leaf := tree("leaf")
	n := leaf
	for range 100000 {
		n = tree("n", n)
	}
	root := tree("root", n)

	got := Traverse[*fakeNode](root, fakeNavigator{}, func(c Cursor[*fakeNode]) (*fakeNode, bool) {
		return c.Node, c.Node == leaf
	})
	require.Len(t, got, 1)
	assert.Same(t, leaf, got[0])
}

// =============================================================================
// Traverse over tree-sitter trees
// =============================================================================

func parseFor(t *testing.T, lang, src string) *sitter.Tree {
	t.Helper()
	g, err := runtime.GrammarFor(lang)
	require.NoError(t, err)
	tree, err := runtime.Parse(context.Background(), g, []byte(src))
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return tree
}

func TestTraverse_JavaComments(t *testing.T) {
	t.Parallel()
	src := `public class Math {
    // control T84
    public static int add(int a, int b) {
        return a + b;
    }

    /* control T83 */
    public static int sub(int a, int b) {
        // plain comment
        return a - b;
    }
}`
	tr := parseFor(t, "java", src)
	g, err := runtime.GrammarFor("java")
	require.NoError(t, err)

	comments := Traverse[*sitter.Node](tr.RootNode(), SitterNavigator{}, func(c Cursor[*sitter.Node]) (*sitter.Node, bool) {
		return c.Node, g.IsComment(c.Node.Type())
	})

	var texts []string
	for _, n := range comments {
		texts = append(texts, n.Content([]byte(src)))
	}
	assert.Equal(t, []string{"// control T84", "/* control T83 */", "// plain comment"}, texts)
}

func TestTraverse_SitterVisitsEveryNodeOnce(t *testing.T) {
	t.Parallel()
	src := "const a = 1;\nfunction f() { return [a, 2, 3]; }\n"
	tr := parseFor(t, "javascript", src)

	type span struct {
		kind       string
		start, end uint32
	}
	seen := map[span]int{}
	Traverse[*sitter.Node](tr.RootNode(), SitterNavigator{}, func(c Cursor[*sitter.Node]) (*sitter.Node, bool) {
		seen[span{c.Node.Type(), c.Node.StartByte(), c.Node.EndByte()}]++
		return nil, false
	})

	require.NotEmpty(t, seen)
	for s, count := range seen {
		assert.Equal(t, 1, count, "%s %d-%d", s.kind, s.start, s.end)
	}
	assert.Contains(t, seen, span{"function_declaration", 13, uint32(len(src) - 1)})
}
