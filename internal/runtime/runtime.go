package runtime

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/object"

	"github.com/jward/control/internal/snapshot"
)

// ErrScript is returned when a filter script fails to evaluate.
var ErrScript = errors.New("filter script failed")

// Runtime embeds a Risor VM and evaluates a region filter script once per
// extracted region. The script's final expression decides whether the region
// is kept: any truthy value keeps it.
//
// Scripts see these globals:
//
//	path, annotation, content   strings
//	start_line, end_line        1-based inclusive line numbers
//	start_col, end_col          zero-based byte columns
//	language                    canonical grammar name
//	control_ids()               identifiers following the "control" token
//	log                         log.Info / log.Warn / log.Error
type Runtime struct {
	source string
	label  string
	logger *slog.Logger
	ids    func(annotation string) []string
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithLogger routes the script's log object to logger.
func WithLogger(logger *slog.Logger) RuntimeOption {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// WithControlIDs sets the function backing the control_ids() host function.
func WithControlIDs(fn func(annotation string) []string) RuntimeOption {
	return func(r *Runtime) {
		r.ids = fn
	}
}

// NewRuntime creates a Runtime for the given Risor source. label names the
// script in error messages.
func NewRuntime(source, label string, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		source: source,
		label:  label,
		logger: slog.New(slog.DiscardHandler),
		ids:    func(string) []string { return nil },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadRuntime reads a filter script from disk.
func LoadRuntime(path string, opts ...RuntimeOption) (*Runtime, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("runtime: loading script %s: %w", path, err)
	}
	return NewRuntime(string(data), path, opts...), nil
}

// LoadRuntimeFS reads a filter script from fsys.
func LoadRuntimeFS(fsys fs.FS, path string, opts ...RuntimeOption) (*Runtime, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("runtime: loading script %s from fs: %w", path, err)
	}
	return NewRuntime(string(data), path, opts...), nil
}

// Keep evaluates the script against region and reports whether it should be
// recorded.
func (r *Runtime) Keep(ctx context.Context, language string, region snapshot.Region) (bool, error) {
	result, err := r.eval(ctx, r.buildGlobals(language, region))
	if err != nil {
		return false, err
	}
	return result.IsTruthy(), nil
}

func (r *Runtime) eval(ctx context.Context, globals map[string]any) (object.Object, error) {
	opts := make([]risor.Option, 0, len(globals))
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}

	result, err := risor.Eval(ctx, r.source, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrScript, r.label, err)
	}
	return result, nil
}

// buildGlobals constructs the globals exposed to the script for one region.
func (r *Runtime) buildGlobals(language string, region snapshot.Region) map[string]any {
	startLine, endLine := region.Lines()
	return map[string]any{
		"path":        region.Path,
		"annotation":  region.Annotation,
		"content":     region.Content,
		"language":    language,
		"start_line":  int64(startLine),
		"end_line":    int64(endLine),
		"start_col":   int64(region.Start.Column),
		"end_col":     int64(region.End.Column),
		"control_ids": makeControlIDsFn(r.ids(region.Annotation)),
		"log":         mustProxy(&logObject{logger: r.logger.With("script", r.label, "path", region.Path)}),
	}
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}
