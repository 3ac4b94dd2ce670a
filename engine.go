package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/control/internal/runtime"
)

// ErrNoRegions signals that an extraction over a whole tree found no
// annotated regions. The engine never returns it; callers that treat an
// empty snapshot as a failure use it to say so.
var ErrNoRegions = errors.New("no commented code found")

// Engine extracts control-annotated regions for one language: file
// discovery, parsing, annotation matching and optional script filtering.
type Engine struct {
	grammar *runtime.Grammar
	matcher *Matcher
	filter  *runtime.Runtime
	logger  *slog.Logger

	extensions []string
	exclude    []string
	gitignore  bool

	// useParallel enables the worker-pool extraction pipeline.
	useParallel bool
	workers     int
}

// Option configures an Engine.
type Option func(*Engine)

// WithExtensions restricts discovery to files with the given extensions
// ("js" or ".js"). The grammar's default extensions apply when unset.
func WithExtensions(exts ...string) Option {
	return func(e *Engine) {
		e.extensions = exts
	}
}

// WithExclude skips files whose root-relative, slash-separated path matches
// any of the glob patterns.
func WithExclude(patterns ...string) Option {
	return func(e *Engine) {
		e.exclude = patterns
	}
}

// WithGitignore controls whether the root's .gitignore is honoured during
// discovery.
func WithGitignore(enabled bool) Option {
	return func(e *Engine) {
		e.gitignore = enabled
	}
}

// WithParallel controls parallel extraction. Output order is identical to
// serial mode.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// WithWorkers bounds the parallel pipeline. Values below 1 mean one worker
// per CPU.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithFilter runs every extracted region through a Risor filter script and
// keeps only the regions it accepts.
func WithFilter(rt *runtime.Runtime) Option {
	return func(e *Engine) {
		e.filter = rt
	}
}

// WithLogger sets the structured logger. Logging is discarded by default.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine for the named language. An unknown language fails
// with an error wrapping runtime.ErrUnsupportedLanguage.
func New(language string, opts ...Option) (*Engine, error) {
	g, err := runtime.GrammarFor(language)
	if err != nil {
		return nil, fmt.Errorf("control: %w", err)
	}

	e := &Engine{
		grammar:   g,
		matcher:   NewMatcher(g.IsComment),
		logger:    slog.New(slog.DiscardHandler),
		gitignore: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	if len(e.extensions) == 0 {
		e.extensions = g.Extensions
	}
	return e, nil
}

// Language returns the canonical name of the Engine's grammar.
func (e *Engine) Language() string {
	return e.grammar.Name
}

// Extensions returns the file extensions the Engine discovers.
func (e *Engine) Extensions() []string {
	return e.extensions
}

// ExtractDirectory discovers matching files under root (or root itself when
// it is a file) and extracts their regions in discovery order.
func (e *Engine) ExtractDirectory(ctx context.Context, root string) (Snapshot, error) {
	paths, err := Discover(ctx, root, DiscoverOptions{
		Extensions:       e.extensions,
		Exclude:          e.exclude,
		RespectGitignore: e.gitignore,
	})
	if err != nil {
		return nil, err
	}
	e.logger.Debug("discovered files", "root", root, "count", len(paths))
	return e.ExtractFiles(ctx, paths)
}

// ExtractFiles extracts regions from each path and concatenates them in the
// order given. A read error aborts the run.
func (e *Engine) ExtractFiles(ctx context.Context, paths []string) (Snapshot, error) {
	if e.useParallel {
		return e.ExtractFilesParallel(ctx, paths)
	}
	return e.extractFilesSerial(ctx, paths)
}

func (e *Engine) extractFilesSerial(ctx context.Context, paths []string) (Snapshot, error) {
	s := Snapshot{}
	for _, path := range paths {
		regions, err := e.extractFile(ctx, path)
		if err != nil {
			return nil, err
		}
		s = append(s, regions...)
	}
	return s, nil
}

func (e *Engine) extractFile(ctx context.Context, path string) ([]Region, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("control: read %s: %w", path, err)
	}
	return e.ExtractSource(ctx, path, src)
}

// ExtractSource extracts the regions of one file's source. path is recorded
// on each region verbatim. A source the grammar cannot parse yields no
// regions rather than an error.
func (e *Engine) ExtractSource(ctx context.Context, path string, src []byte) ([]Region, error) {
	tree, err := runtime.Parse(ctx, e.grammar, src)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		e.logger.Warn("skipping unparseable file", "path", path, "error", err)
		return nil, nil
	}
	defer tree.Close()

	regions := e.regions(path, src, tree.RootNode())
	if e.filter == nil {
		return regions, nil
	}
	return e.applyFilter(ctx, regions)
}

// regions pairs each annotation comment with its next named sibling.
func (e *Engine) regions(path string, src []byte, root *sitter.Node) []Region {
	comments := Traverse[*sitter.Node](root, SitterNavigator{}, e.matcher.Selector(src))

	var regions []Region
	for _, comment := range comments {
		next := comment.NextNamedSibling()
		if next == nil {
			e.logger.Debug("annotation has no following node",
				"path", path, "line", comment.StartPoint().Row+1)
			continue
		}
		regions = append(regions, Region{
			Path:       path,
			Annotation: comment.Content(src),
			Content:    next.Content(src),
			Start:      positionOf(next.StartPoint()),
			End:        positionOf(next.EndPoint()),
		})
	}
	e.logger.Debug("extracted file", "path", path, "annotations", len(comments), "regions", len(regions))
	return regions
}

func (e *Engine) applyFilter(ctx context.Context, regions []Region) ([]Region, error) {
	kept := regions[:0]
	for _, r := range regions {
		ok, err := e.filter.Keep(ctx, e.grammar.Name, r)
		if err != nil {
			return nil, fmt.Errorf("control: filter %s: %w", r.Path, err)
		}
		if ok {
			kept = append(kept, r)
		} else {
			e.logger.Debug("region filtered out", "region", r.String())
		}
	}
	return kept, nil
}

func positionOf(p sitter.Point) Position {
	return Position{Row: int(p.Row), Column: int(p.Column)}
}
