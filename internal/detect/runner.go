// Package detect supervises the external detector process: it launches one
// child process per footage item, verifies the output artifact, ingests the
// sibling metadata file, and applies the terminal status transition.
package detect

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"
)

// Runner invokes the detector executable for a single footage item.
type Runner struct {
	Binary   string
	FacesDir string
	LogLevel string
	// Timeout bounds one detector run; expiry kills the process and fails
	// the job.
	Timeout time.Duration
}

// Run executes the detector against inputPath, expecting it to write the
// annotated video at outputPath. The child's stdout and stderr are drained
// into the log for diagnostics only. An exit code of 0 without the output
// file on disk is still a failure: the exit code alone is not trusted.
func (r *Runner) Run(ctx context.Context, footageID, inputPath, outputPath string) error {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.Binary,
		"--source", inputPath,
		"--output", outputPath,
		"--faces-dir", r.FacesDir,
		"--log-level", r.LogLevel,
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("detector stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("detector stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start detector: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			slog.Debug("detector stdout", "footage_id", footageID, "output", scanner.Text())
		}
	}()
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			slog.Warn("detector stderr", "footage_id", footageID, "output", scanner.Text())
		}
	}()

	wg.Wait()
	err = cmd.Wait()

	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("detector timed out after %s", r.Timeout)
	}
	if err != nil {
		return fmt.Errorf("detector exited: %w", err)
	}

	if _, statErr := os.Stat(outputPath); statErr != nil {
		if errors.Is(statErr, os.ErrNotExist) {
			return fmt.Errorf("detector exited 0 but output artifact %s is missing", outputPath)
		}
		return fmt.Errorf("stat output artifact: %w", statErr)
	}

	return nil
}
