package orchestrator

import (
	"errors"
	"fmt"
	"io"
	"os"
	"rtfctl/internal/config"
	"rtfctl/pkg/logging"
)

// PrepareResults deletes an existing results artifact unless the run
// concatenates. It must be called before the first unit of a run.
func PrepareResults(cfg *config.RunConfig) error {
	if cfg.ResultsPath == "" || cfg.Concatenate {
		return nil
	}
	err := os.Remove(cfg.ResultsPath)
	if err == nil {
		logging.Debug("Orchestrator", "deleted previous results %s", cfg.ResultsPath)
		return nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to delete previous results %s: %w", cfg.ResultsPath, err)
}

// appendFiles appends the content of parts to dst in order. Missing parts
// are skipped; a unit that failed early may not have written anything.
func appendFiles(dst string, parts []string) error {
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open results %s: %w", dst, err)
	}
	defer out.Close()

	for _, part := range parts {
		in, err := os.Open(part)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to open partial results %s: %w", part, err)
		}
		_, err = io.Copy(out, in)
		in.Close()
		if err != nil {
			return fmt.Errorf("failed to merge partial results %s: %w", part, err)
		}
	}
	return out.Close()
}
