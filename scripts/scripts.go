// Package scripts embeds the built-in Risor filter scripts.
//
// A filter is evaluated once per extracted region and keeps the region when
// its final expression is truthy. Built-ins are selected on the command line
// with --filter builtin:<name>.
package scripts

import (
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed filters/*.risor
var FS embed.FS

// BuiltinPrefix marks a --filter value that names an embedded script.
const BuiltinPrefix = "builtin:"

// Filters returns the names of the built-in filters, sorted.
func Filters() []string {
	entries, err := fs.ReadDir(FS, "filters")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".risor"))
	}
	sort.Strings(names)
	return names
}

// FilterPath returns the path within FS of the named built-in filter, and
// whether value used the builtin: prefix at all.
func FilterPath(value string) (string, bool) {
	name, ok := strings.CutPrefix(value, BuiltinPrefix)
	if !ok {
		return "", false
	}
	return path.Join("filters", name+".risor"), true
}
