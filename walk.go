package control

import sitter "github.com/smacker/go-tree-sitter"

// Navigator is the read-only view of a tree the walker needs. The zero value
// of N, reported with ok=false, means "no such node".
type Navigator[N any] interface {
	FirstChild(n N) (N, bool)
	NextSibling(n N) (N, bool)
}

// Cursor describes the walker's position when a Selector is called.
type Cursor[N any] struct {
	// Node is the node currently visited.
	Node N
	// Parent is the node's parent. The root is the parent of depth-1 nodes.
	Parent N
	// Depth is 1 for the root's children.
	Depth int
}

// Selector decides whether to collect a node at the current cursor. It may
// return a node other than cursor.Node.
type Selector[N any] func(cursor Cursor[N]) (N, bool)

// Traverse walks the tree below root depth-first in pre-order and returns
// every node sel collects, in visit order. sel is not called for root itself.
//
// The walk is iterative: an explicit ancestor stack replaces recursion, so
// deep trees cannot exhaust the goroutine stack.
func Traverse[N any](root N, nav Navigator[N], sel Selector[N]) []N {
	var collected []N

	node, ok := nav.FirstChild(root)
	if !ok {
		return collected
	}
	ancestors := []N{root}

	for {
		if picked, ok := sel(Cursor[N]{Node: node, Parent: ancestors[len(ancestors)-1], Depth: len(ancestors)}); ok {
			collected = append(collected, picked)
		}

		if child, ok := nav.FirstChild(node); ok {
			ancestors = append(ancestors, node)
			node = child
			continue
		}

		for {
			if sibling, ok := nav.NextSibling(node); ok {
				node = sibling
				break
			}
			// Siblings exhausted: backtrack. Popping the root ends the walk.
			node = ancestors[len(ancestors)-1]
			ancestors = ancestors[:len(ancestors)-1]
			if len(ancestors) == 0 {
				return collected
			}
		}
	}
}

// SitterNavigator walks every child of a tree-sitter node, named and
// anonymous alike.
type SitterNavigator struct{}

// FirstChild returns n's first child.
func (SitterNavigator) FirstChild(n *sitter.Node) (*sitter.Node, bool) {
	if n == nil || n.ChildCount() == 0 {
		return nil, false
	}
	child := n.Child(0)
	return child, child != nil
}

// NextSibling returns n's next sibling.
func (SitterNavigator) NextSibling(n *sitter.Node) (*sitter.Node, bool) {
	if n == nil {
		return nil, false
	}
	sibling := n.NextSibling()
	return sibling, sibling != nil
}
