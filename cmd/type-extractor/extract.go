package main

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rohankatakam/typextract/internal/errors"
	"github.com/rohankatakam/typextract/internal/extract"
	"github.com/rohankatakam/typextract/internal/frontend"
	"github.com/rohankatakam/typextract/internal/sink"
)

// runStandalone compiles standard input and prints its declarations.
func (a *app) runStandalone(cmd *cobra.Command, args []string) error {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		a.logger.Warn("Reading header from standard input; end it with Ctrl-D")
	}

	out, err := a.openSink(cmd.Context(), cmd.OutOrStdout(), frontend.StdinFileName)
	if err != nil {
		return err
	}

	runErr := frontend.Run(cmd.Context(), frontend.Invocation{
		Args:   a.compilerArgs(args),
		Source: in,
		Stderr: cmd.ErrOrStderr(),
		Logger: a.logger.Logger,
	}, extract.NewAction(out, a.logger.Logger))
	return closeSink(out, wrapRunError(runErr, frontend.StdinFileName))
}

// compilerArgs puts the configured flags before the command line's.
func (a *app) compilerArgs(args []string) []string {
	return append(a.cfg.CompilerArgs(), args...)
}

// openSink returns the stdout sink, fanned out to the configured databases.
func (a *app) openSink(ctx context.Context, w io.Writer, source string) (sink.Sink, error) {
	sinks := sink.Multi{sink.NewLineSink(w)}
	if path := a.cfg.Output.SQLitePath; path != "" {
		db, err := sink.NewSQLiteSink(path, source, a.logger.Logger)
		if err != nil {
			return nil, errors.OutputError(err, "failed to open "+filepath.Base(path))
		}
		a.logger.WithField("run_id", db.RunID()).Info("Recording declarations in SQLite")
		sinks = append(sinks, db)
	}
	if dsn := a.cfg.Output.PostgresDSN; dsn != "" {
		db, err := sink.NewPostgresSink(ctx, dsn, source, a.logger.Logger)
		if err != nil {
			sinks.Close()
			return nil, errors.OutputError(err, "failed to open PostgreSQL output")
		}
		a.logger.WithField("run_id", db.RunID()).Info("Recording declarations in PostgreSQL")
		sinks = append(sinks, db)
	}
	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return sinks, nil
}

func closeSink(out sink.Sink, err error) error {
	if cerr := out.Close(); cerr != nil && err == nil {
		return errors.OutputError(cerr, "failed to close output")
	}
	return err
}

// wrapRunError classifies a front-end result for the exit path.
func wrapRunError(err error, file string) error {
	if err == nil {
		return nil
	}
	var ce *frontend.CompileError
	if stderrors.As(err, &ce) {
		return errors.FrontendError(err, file)
	}
	var typed *errors.Error
	if stderrors.As(err, &typed) {
		return err
	}
	return errors.OutputError(err, "extraction failed")
}
