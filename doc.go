// Package control records and checks the code covered by control annotations:
// comments such as
//
//	// control HE-110 JS-1
//
// placed directly before the statement, declaration or block they govern.
// It is built on tree-sitter and works for every compiled-in grammar.
//
// # Pipeline
//
//  1. Discover: walk a directory for files with the language's extensions,
//     honouring exclude globs and .gitignore.
//
//  2. Extract: parse each file, walk the tree with [Traverse], select comment
//     nodes whose text is an annotation, and pair each with its next named
//     sibling. Each pair becomes a [Region]. An optional Risor filter script
//     can drop regions.
//
//  3. Record or compare: a [Snapshot] is persisted with the snapshot codec
//     (internal/snapshot), or compared with a stored one using [Diff].
//
// # Usage
//
//	e, err := control.New("javascript")
//	if err != nil { ... }
//
//	ctx := context.Background()
//	current, err := e.ExtractDirectory(ctx, "path/to/project")
//
//	changes := control.Diff(previous, current)
//	if !changes.Empty() { ... }
//
// # Diff semantics
//
// Snapshots are compared as multisets of regions under full equality: path,
// annotation text, content and positions. Moving annotated code, even without
// editing it, is reported as one removal and one addition.
package control
