package control

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ExtractFilesParallel extracts regions using a two-phase pipeline:
//
//	Phase A (parallel): Read, parse and extract each file via a bounded worker pool.
//	Phase B (serial):   Concatenate per-file results in input order.
//
// The result is identical to serial extraction. The first error cancels the
// remaining workers and is returned.
func (e *Engine) ExtractFilesParallel(ctx context.Context, paths []string) (Snapshot, error) {
	if len(paths) == 0 {
		return Snapshot{}, nil
	}

	numWorkers := e.workers
	if numWorkers < 1 {
		numWorkers = runtime.NumCPU()
	}
	numWorkers = min(numWorkers, len(paths))

	// ---- Phase A: Parallel extraction ----
	results := make([][]Region, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)
	for i, path := range paths {
		g.Go(func() error {
			regions, err := e.extractFile(gctx, path)
			if err != nil {
				return err
			}
			results[i] = regions
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("parallel extraction: %w", err)
	}

	// ---- Phase B: Ordered merge ----
	s := Snapshot{}
	for _, regions := range results {
		s = append(s, regions...)
	}
	e.logger.Debug("parallel extraction complete", "files", len(paths), "workers", numWorkers, "regions", len(s))
	return s, nil
}
