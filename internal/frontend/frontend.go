// Package frontend is a small C/C++ compiler front-end: it preprocesses a
// header, parses it with tree-sitter and resolves declarations, types and
// record layouts into a cdecl.TranslationUnit that actions consume.
package frontend

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/rohankatakam/typextract/internal/cdecl"
	"github.com/rohankatakam/typextract/internal/treesitter"
)

// StdinFileName is the name standard input is compiled under.
const StdinFileName = "header.h"

// Consumer receives a translation unit once it is built.
type Consumer interface {
	HandleTranslationUnit(ctx context.Context, tu *cdecl.TranslationUnit) error
}

// Action creates the consumer for one compilation.
type Action interface {
	NewConsumer(ci *CompilerInstance) (Consumer, error)
}

// ActionFunc adapts a function to Action.
type ActionFunc func(ci *CompilerInstance) (Consumer, error)

// NewConsumer calls f.
func (f ActionFunc) NewConsumer(ci *CompilerInstance) (Consumer, error) {
	return f(ci)
}

// CompilerInstance is the state one compilation shares with its actions.
type CompilerInstance struct {
	Options *Options
	Target  *Target
	Diags   *Diagnostics
	Files   *FileManager
	Logger  *logrus.Logger
	// MainFile is the primary input as the front-end names it.
	MainFile string
}

// Invocation describes one run of the front-end.
type Invocation struct {
	// Args are compiler-style flags and input files.
	Args []string
	// Source, when set, is compiled instead of the inputs named in Args.
	Source io.Reader
	// FileName names Source; StdinFileName when empty.
	FileName string
	// WorkDir resolves relative paths; the process directory when empty.
	WorkDir string
	Stderr  io.Writer
	Logger  *logrus.Logger
	// Fs is the file system headers are read from; the OS when nil.
	Fs afero.Fs
}

// CompileError reports a compilation that produced error diagnostics.
type CompileError struct {
	File     string
	Errors   int
	Warnings int
	Fatal    bool
}

func (e *CompileError) Error() string {
	if e.Fatal {
		return fmt.Sprintf("%s: compilation stopped after a fatal error", e.File)
	}
	return fmt.Sprintf("%s: %d error(s) generated", e.File, e.Errors)
}

// Run compiles every input of inv and runs the actions on each. Diagnostics
// go to inv.Stderr. The returned error is a *CompileError when compilation
// itself failed, or the first error an action returned.
func Run(ctx context.Context, inv Invocation, actions ...Action) error {
	logger := inv.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	stderr := inv.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	opts, err := ParseArgs(inv.Args)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return &CompileError{File: "<command line>", Errors: 1}
	}

	workDir := inv.WorkDir
	if workDir == "" {
		if workDir, err = os.Getwd(); err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
	}
	base := inv.Fs
	if base == nil {
		base = afero.NewOsFs()
	}
	fsys, err := NewOverlayFs(base, opts.ResourceDir)
	if err != nil {
		return fmt.Errorf("failed to mount builtin headers: %w", err)
	}

	if inv.Source != nil {
		data, err := io.ReadAll(inv.Source)
		if err != nil {
			return fmt.Errorf("failed to read source: %w", err)
		}
		name := inv.FileName
		if name == "" {
			name = StdinFileName
		}
		return compile(ctx, opts, fsys, workDir, stderr, logger, name, data, actions)
	}

	if len(opts.Inputs) == 0 {
		fmt.Fprintln(stderr, "error: no input files")
		return &CompileError{File: "<command line>", Errors: 1}
	}
	var first error
	for _, input := range opts.Inputs {
		if err := ctx.Err(); err != nil {
			return err
		}
		fileOpts := *opts
		if err := compile(ctx, &fileOpts, fsys, workDir, stderr, logger, input, nil, actions); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// compile runs one translation unit. data is nil when name is read from
// the file system.
func compile(ctx context.Context, opts *Options, fsys afero.Fs, workDir string, stderr io.Writer, logger *logrus.Logger, name string, data []byte, actions []Action) error {
	if !opts.LanguageSet && opts.Std == "" && treesitter.DetectLanguage(name) == treesitter.LangCpp {
		opts.Language = LangCXX
	}

	diags := NewDiagnostics(stderr, opts, logger)
	for _, flag := range opts.Unused {
		diags.Warnf(cdecl.Location{}, "argument unused during compilation: '%s'", flag)
	}
	defer func() {
		if summary := diags.Summary(); summary != "" {
			fmt.Fprintln(stderr, summary)
		}
	}()
	failed := func() error {
		errs, warns := diags.Counts()
		return &CompileError{File: name, Errors: errs, Warnings: warns, Fatal: diags.HasFatal()}
	}

	triple := opts.Target
	if triple == "" {
		triple = HostTriple()
	}
	target, err := NewTarget(triple)
	if err != nil {
		diags.Errorf(cdecl.Location{}, "%v", err)
		return failed()
	}

	files := NewFileManager(fsys, workDir)
	var main *SourceFile
	if data != nil {
		main = files.Virtual(name, data)
	} else if main, err = files.Open(name); err != nil {
		diags.Errorf(cdecl.Location{}, "no such file or directory: '%s'", name)
		return failed()
	}

	ci := &CompilerInstance{
		Options:  opts,
		Target:   target,
		Diags:    diags,
		Files:    files,
		Logger:   logger,
		MainFile: main.Name,
	}
	logger.WithFields(logrus.Fields{
		"file":     main.Name,
		"language": opts.Language.String(),
		"target":   target.Triple,
	}).Debug("Compiling translation unit")

	pp := NewPreprocessor(opts, target, files, diags, logger)
	exp := pp.Run(main)
	if diags.HasFatal() {
		return failed()
	}

	grammar := treesitter.LangC
	if opts.Language == LangCXX {
		grammar = treesitter.LangCpp
	}
	parser, err := treesitter.NewLanguageParser(grammar)
	if err != nil {
		return fmt.Errorf("failed to create %s parser: %w", grammar, err)
	}
	defer parser.Close()
	tree, err := parser.Parse(exp.Text)
	if err != nil {
		diags.Fatalf(cdecl.Location{}, "%v", err)
		return failed()
	}
	defer tree.Close()

	tu := newSema(opts, target, diags, logger, exp, filepath.ToSlash(main.Name)).analyze(tree.RootNode())

	for _, action := range actions {
		consumer, err := action.NewConsumer(ci)
		if err != nil {
			return err
		}
		if err := consumer.HandleTranslationUnit(ctx, tu); err != nil {
			return err
		}
	}
	if diags.HasErrors() {
		return failed()
	}
	return nil
}
