// Package batch extracts many headers at once. Every file is its own
// translation unit; units compile in parallel and their output is written in
// input order.
package batch

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/rohankatakam/typextract/internal/errors"
	"github.com/rohankatakam/typextract/internal/extract"
	"github.com/rohankatakam/typextract/internal/frontend"
	"github.com/rohankatakam/typextract/internal/sink"
)

// DefaultExtensions are the header suffixes collected from directories.
var DefaultExtensions = []string{".h", ".hh", ".hpp", ".hxx"}

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"build":        true,
	"CMakeFiles":   true,
	"node_modules": true,
	"vendor":       true,
}

// Options configures a batch run.
type Options struct {
	// Workers bounds concurrent compilations; 1 when zero.
	Workers int
	// Extensions filters files found in directories.
	Extensions []string
	// FailFast stops scheduling units after the first failure.
	FailFast bool
	// Args are compiler flags shared by every unit, without inputs.
	Args    []string
	WorkDir string
	Fs      afero.Fs
	Logger  *logrus.Logger
	// Stderr receives each unit's diagnostics, in input order.
	Stderr io.Writer
}

// FileResult is the outcome of one unit.
type FileResult struct {
	File     string
	Records  int
	Err      error
	// Skipped is set for units cancelled before they finished.
	Skipped  bool
	Duration time.Duration
}

// Result summarizes a run.
type Result struct {
	Files    []FileResult
	Records  int
	Failed   int
	Skipped  int
	Duration time.Duration
}

// Err reports failed and skipped units as one error, nil when all
// succeeded.
func (r *Result) Err() error {
	if r.Failed == 0 && r.Skipped == 0 {
		return nil
	}
	if r.Skipped > 0 {
		return errors.InputErrorf("%d of %d files failed, %d skipped", r.Failed, len(r.Files), r.Skipped)
	}
	return errors.InputErrorf("%d of %d files failed", r.Failed, len(r.Files))
}

// Runner runs batches against one output sink.
type Runner struct {
	opts   Options
	out    sink.Sink
	logger *logrus.Logger
}

// NewRunner creates a runner writing to out.
func NewRunner(opts Options, out sink.Sink) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	return &Runner{opts: opts, out: out, logger: opts.Logger}
}

// Collect expands paths into the list of files to compile. Files named
// directly are kept whatever their extension; directories are walked in
// lexical order. Duplicates are dropped.
func (r *Runner) Collect(paths []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(p string) {
		key := filepath.Clean(r.abs(p))
		if !seen[key] {
			seen[key] = true
			files = append(files, p)
		}
	}

	for _, p := range paths {
		root := r.abs(p)
		info, err := r.opts.Fs.Stat(root)
		if err != nil {
			return nil, errors.FileSystemErrorf(err, "cannot access %s", p)
		}
		if !info.IsDir() {
			add(p)
			continue
		}
		err = afero.Walk(r.opts.Fs, root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				if path != root && skipDirs[info.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if !r.matches(info.Name()) {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			add(filepath.Join(p, rel))
			return nil
		})
		if err != nil {
			return nil, errors.FileSystemErrorf(err, "failed to walk %s", p)
		}
	}

	r.logger.WithFields(logrus.Fields{
		"paths": len(paths),
		"files": len(files),
	}).Debug("Collected headers")
	return files, nil
}

func (r *Runner) abs(p string) string {
	if filepath.IsAbs(p) || r.opts.WorkDir == "" {
		return p
	}
	return filepath.Join(r.opts.WorkDir, p)
}

func (r *Runner) matches(name string) bool {
	ext := filepath.Ext(name)
	for _, e := range r.opts.Extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// unit is one file's buffered output.
type unit struct {
	file   string
	stderr bytes.Buffer
	out    sink.Collector
	err    error
	took   time.Duration
	done   chan struct{}
}

// Run compiles files and writes their records to the runner's sink. The
// returned error is non-nil only for failures that stop the whole run: a
// sink error, cancellation, or the first unit failure under FailFast.
// Per-file failures are in the Result.
func (r *Runner) Run(ctx context.Context, files []string) (*Result, error) {
	start := time.Now()
	r.logger.WithFields(logrus.Fields{
		"files":   len(files),
		"workers": r.opts.Workers,
	}).Info("Starting batch extraction")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	units := make([]*unit, len(files))
	for i, f := range files {
		units[i] = &unit{file: f, done: make(chan struct{})}
	}

	flushed := make(chan error, 1)
	go func() {
		err := r.flush(runCtx, units)
		if err != nil {
			cancel()
		}
		flushed <- err
	}()

	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(r.opts.Workers)
	for _, u := range units {
		g.Go(func() error {
			defer close(u.done)
			r.compile(gctx, u)
			if u.err != nil && r.opts.FailFast {
				return u.err
			}
			return nil
		})
	}
	runErr := g.Wait()
	flushErr := <-flushed

	result := &Result{Duration: time.Since(start)}
	for _, u := range units {
		fr := FileResult{File: u.file, Records: len(u.out.Records), Err: u.err, Duration: u.took}
		switch {
		case stderrors.Is(u.err, context.Canceled):
			fr.Skipped = true
			fr.Records = 0
			result.Skipped++
		case u.err != nil:
			result.Failed++
			result.Records += fr.Records
		default:
			result.Records += fr.Records
		}
		result.Files = append(result.Files, fr)
	}

	r.logger.WithFields(logrus.Fields{
		"duration": result.Duration.String(),
		"files":    len(files),
		"failed":   result.Failed,
		"skipped":  result.Skipped,
		"records":  result.Records,
	}).Info("Batch extraction completed")

	if err := ctx.Err(); err != nil {
		return result, err
	}
	if flushErr != nil {
		return result, flushErr
	}
	if runErr != nil {
		return result, runErr
	}
	return result, nil
}

// compile runs one unit into its buffers.
func (r *Runner) compile(ctx context.Context, u *unit) {
	start := time.Now()
	defer func() { u.took = time.Since(start) }()
	if err := ctx.Err(); err != nil {
		u.err = err
		return
	}

	inv := frontend.Invocation{
		Args:    append(append([]string(nil), r.opts.Args...), u.file),
		WorkDir: r.opts.WorkDir,
		Stderr:  &u.stderr,
		Logger:  r.logger,
		Fs:      r.opts.Fs,
	}
	err := frontend.Run(ctx, inv, extract.NewAction(&u.out, r.logger))
	if err != nil {
		var ce *frontend.CompileError
		if stderrors.As(err, &ce) {
			u.err = errors.FrontendError(err, u.file)
		} else {
			u.err = err
		}
		r.logger.WithFields(logrus.Fields{
			"file":  u.file,
			"error": err.Error(),
		}).Info("Header failed to extract")
	}
}

// flush writes units in order as they finish. Records of a failed unit are
// still written; they are the declarations that did resolve.
func (r *Runner) flush(ctx context.Context, units []*unit) error {
	for _, u := range units {
		select {
		case <-u.done:
		case <-ctx.Done():
			return ctx.Err()
		}
		if _, werr := r.opts.Stderr.Write(u.stderr.Bytes()); werr != nil {
			return errors.OutputError(werr, "failed to write diagnostics")
		}
		if stderrors.Is(u.err, context.Canceled) {
			continue
		}
		if err := u.out.Replay(ctx, r.out); err != nil {
			return errors.OutputError(err, fmt.Sprintf("failed to write records for %s", u.file))
		}
	}
	return nil
}
