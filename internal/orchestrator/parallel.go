package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"rtfctl/internal/config"
	"rtfctl/internal/host"
	"rtfctl/pkg/logging"

	"golang.org/x/sync/errgroup"
)

// runParallel runs units with at most cfg.Parallel in flight. Each unit
// writes its own partial results file so the artifact keeps a single
// writer; the parts are appended to it in unit order once all are done.
func (o *Orchestrator) runParallel(ctx context.Context, cfg *config.RunConfig, units []host.Unit) []UnitResult {
	var parts []string
	if cfg.ResultsPath != "" {
		dir, err := os.MkdirTemp("", "rtfctl-results-*")
		if err != nil {
			logging.Warn("Orchestrator", "cannot create scratch directory, running sequentially: %v", err)
			return o.runSequential(ctx, cfg, units)
		}
		o.scratch = dir

		base := filepath.Base(cfg.ResultsPath)
		parts = make([]string, len(units))
		for i := range units {
			parts[i] = filepath.Join(dir, fmt.Sprintf("%03d-%s", i, base))
			units[i].ResultsPath = parts[i]
		}
	}

	logging.Info("Orchestrator", "running %d assemblies with %d workers", len(units), cfg.Parallel)

	results := make([]UnitResult, len(units))
	var g errgroup.Group
	g.SetLimit(cfg.Parallel)
	for i, unit := range units {
		g.Go(func() error {
			results[i] = o.runUnit(ctx, unit, false)
			return nil
		})
	}
	_ = g.Wait()

	if parts != nil {
		if err := appendFiles(cfg.ResultsPath, parts); err != nil {
			logging.Error("Orchestrator", err, "failed to merge partial results")
		}
	}
	return results
}

func removeScratch(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove scratch directory %s: %w", dir, err)
	}
	return nil
}
