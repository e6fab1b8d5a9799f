package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/typextract/internal/config"
	"github.com/rohankatakam/typextract/internal/errors"
	"github.com/rohankatakam/typextract/internal/logging"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// app is the state shared by every command of one invocation.
type app struct {
	cfgFile   string
	logLevel  string
	logFormat string

	cfg    *config.Config
	logger *logging.Logger
}

func main() {
	root := newRootCmd()
	root.SetArgs(forwardCompilerFlags(root, os.Args[1:]))
	err := root.Execute()
	os.Exit(exitCode(err, root.ErrOrStderr()))
}

// exitCode prints err and maps it to the process status. Compilation
// failures already printed their diagnostics.
func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	if errors.GetType(err) != errors.ErrorTypeFrontend {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return 1
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "type-extractor [flags] [-- compiler flags]",
		Short: "Extract type information from C and C++ headers",
		Long: `type-extractor reads a header from standard input and prints one JSON
line per typedef, struct, union, enum and function it declares.

Compiler flags such as -I, -D, -target and -x follow the command's own
flags, optionally after "--":
  type-extractor -x c++ -Iinclude < api.h
  type-extractor --log-level debug -- -x c++ < api.h`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				a.logger.Close()
			}
		},
		RunE: a.runStandalone,
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: .type-extractor/config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format: text or json")

	root.SetVersionTemplate(`type-extractor {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)

	root.AddCommand(a.newBatchCmd())
	root.AddCommand(a.newCCCmd())
	root.AddCommand(newPluginsCmd())
	root.AddCommand(a.newConfigCmd())
	return root
}

// forwardCompilerFlags inserts "--" before the first argument of a
// standalone run that is not one of the root command's flags, so compiler
// flags reach the front-end untouched. Subcommand invocations are returned
// as given.
func forwardCompilerFlags(root *cobra.Command, args []string) []string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return args
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			if isSubcommand(root, arg) {
				return args
			}
			return insertDash(args, i)
		}

		name, _, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		var known, takesValue bool
		switch {
		case arg == "-h" || arg == "--help" || arg == "--version":
			known = true
		case strings.HasPrefix(arg, "--"):
			if f := root.Flags().Lookup(name); f != nil {
				known, takesValue = true, f.NoOptDefVal == ""
			}
		case len(arg) == 2:
			if f := root.Flags().ShorthandLookup(name); f != nil {
				known, takesValue = true, f.NoOptDefVal == ""
			}
		}
		if !known {
			return insertDash(args, i)
		}
		if takesValue && !hasValue {
			i++
		}
	}
	return args
}

func isSubcommand(root *cobra.Command, name string) bool {
	if name == "help" || name == "completion" {
		return true
	}
	for _, c := range root.Commands() {
		if c.Name() == name || c.HasAlias(name) {
			return true
		}
	}
	return false
}

func insertDash(args []string, i int) []string {
	out := make([]string, 0, len(args)+1)
	out = append(out, args[:i]...)
	out = append(out, "--")
	return append(out, args[i:]...)
}

// setup loads the configuration and builds the logger. Flags override the
// configured log settings.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return errors.ConfigError(err, "failed to load configuration")
	}
	a.cfg = cfg

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Log.Level
	logCfg.Format = cfg.Log.Format
	logCfg.OutputFile = cfg.Log.File
	if a.logLevel != "" {
		logCfg.Level = a.logLevel
	}
	if a.logFormat != "" {
		logCfg.Format = a.logFormat
	}
	logger, err := logging.New(logCfg, cmd.ErrOrStderr())
	if err != nil {
		return errors.ConfigError(err, "failed to configure logging")
	}
	a.logger = logger
	return nil
}
