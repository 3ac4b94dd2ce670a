package control

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	gitignore "github.com/sabhiram/go-gitignore"
)

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
}

// DiscoverOptions controls which files Discover returns.
type DiscoverOptions struct {
	// Extensions to accept, with or without a leading dot. Matching is case
	// insensitive. Empty accepts every file.
	Extensions []string
	// Exclude holds glob patterns matched against root-relative,
	// slash-separated paths. "dist" also excludes everything below dist/.
	Exclude []string
	// RespectGitignore skips paths ignored by root's .gitignore.
	RespectGitignore bool
}

// Discover returns the files under root that pass opts, in lexical walk
// order. Hidden directories and common dependency directories are skipped. A
// root that is itself a file is returned as-is when its extension matches.
func Discover(ctx context.Context, root string, opts DiscoverOptions) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("control: discover: %w", err)
	}

	exts := normalizeExtensions(opts.Extensions)
	if !info.IsDir() {
		if matchesExtension(root, exts) {
			return []string{root}, nil
		}
		return []string{}, nil
	}

	excludes, err := compileGlobs(opts.Exclude)
	if err != nil {
		return nil, err
	}

	var ignore *gitignore.GitIgnore
	if opts.RespectGitignore {
		gitignorePath := filepath.Join(root, ".gitignore")
		if _, err := os.Stat(gitignorePath); err == nil {
			ignore, err = gitignore.CompileIgnoreFile(gitignorePath)
			if err != nil {
				return nil, fmt.Errorf("control: read %s: %w", gitignorePath, err)
			}
		}
	}

	paths := []string{}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			name := d.Name()
			if strings.HasPrefix(name, ".") || skipDirs[name] {
				return filepath.SkipDir
			}
			if excluded(rel, excludes) || (ignore != nil && ignore.MatchesPath(rel+"/")) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || !matchesExtension(path, exts) {
			return nil
		}
		if excluded(rel, excludes) {
			return nil
		}
		if ignore != nil && ignore.MatchesPath(rel) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("control: discover %s: %w", root, err)
	}
	return paths, nil
}

func normalizeExtensions(exts []string) map[string]bool {
	if len(exts) == 0 {
		return nil
	}
	set := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			set[ext] = true
		}
	}
	return set
}

func matchesExtension(path string, exts map[string]bool) bool {
	if exts == nil {
		return true
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	return exts[ext]
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	var globs []glob.Glob
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("control: exclude pattern %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// excluded also tries rel+"/**" so a bare directory name excludes its tree.
func excluded(rel string, globs []glob.Glob) bool {
	for _, g := range globs {
		if g.Match(rel) || g.Match(rel+"/**") {
			return true
		}
	}
	return false
}
