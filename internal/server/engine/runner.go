// Package engine wraps the external FHE compute process. The engine is opaque
// to the server: it is handed resolved artifact paths on the command line and
// answers with line-delimited JSON records on stdout plus free-form
// diagnostics on stderr.
package engine

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"

	"github.com/hevault-io/hevault/internal/logging"
)

// Job is one resolved, ready-to-execute unit of search work.
type Job struct {
	QueryPath   string
	VectorDir   string
	DictVersion int
	PolyDegree  int
	KeysDir     string
}

// Record is one parsed line of engine output: an engine-local index-vector id
// and the opaque encrypted score for it.
type Record struct {
	IndexID  int64  `json:"index_id"`
	EncScore string `json:"enc_score"`
}

// Runner spawns one engine process per job. Jobs never run concurrently on
// the same Runner call path; the caller serializes them.
type Runner struct {
	bin         string
	fallbackBin string
	outputLimit int
	logger      logging.Logger
}

func NewRunner(bin, fallbackBin string, outputLimit int, logger logging.Logger) *Runner {
	return &Runner{
		bin:         bin,
		fallbackBin: fallbackBin,
		outputLimit: outputLimit,
		logger:      logger.With("module", "engine"),
	}
}

// ResolveBin returns the primary binary path when it exists on disk and the
// fallback otherwise. Resolution never prevents job execution; a bad path
// simply fails at spawn time, reported per job.
func (r *Runner) ResolveBin() string {
	if _, err := os.Stat(r.bin); err == nil {
		return r.bin
	}
	return r.fallbackBin
}

// Run executes the engine for one job and invokes onRecord for every
// well-formed output record, in emission order. Malformed lines are dropped
// and logged, never surfaced. Diagnostics on stderr are drained to the log
// after the output stream ends; the exit status is logged but not interpreted
// as success or failure. Cancelling ctx kills the process, so a client
// disconnect cannot leave compute work running unattended.
func (r *Runner) Run(ctx context.Context, job Job, onRecord func(Record) error) error {
	bin := r.ResolveBin()

	cmd := exec.CommandContext(ctx, bin,
		"--query", job.QueryPath,
		"--vector-folder", job.VectorDir,
		"--poly-degree", strconv.Itoa(job.PolyDegree),
		"--keys-path", job.KeysDir,
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("engine stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("engine stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("engine spawn: %w", err)
	}

	r.logger.Info(ctx, "engine started",
		"bin", bin, "query", job.QueryPath, "dict_version", job.DictVersion)

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), r.outputLimit)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			r.logger.Warn(ctx, "dropping malformed engine output", "error", err)
			continue
		}
		if rec.IndexID == 0 {
			continue
		}

		if err := onRecord(rec); err != nil {
			_ = cmd.Process.Kill()
			_ = cmd.Wait()
			return fmt.Errorf("engine record handler: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		r.logger.Error(ctx, "engine output read failed", "error", err)
	}

	// Diagnostics go to the operational log only, never to the client.
	if diag, err := io.ReadAll(stderr); err == nil && len(diag) > 0 {
		r.logger.Info(ctx, "engine diagnostics", "stderr", string(diag))
	}

	if err := cmd.Wait(); err != nil {
		r.logger.Warn(ctx, "engine exited with error", "error", err)
	}

	return nil
}
