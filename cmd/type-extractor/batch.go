package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/typextract/internal/batch"
	"github.com/rohankatakam/typextract/internal/errors"
)

func (a *app) newBatchCmd() *cobra.Command {
	var (
		workers    int
		failFast   bool
		extensions []string
		summary    bool
	)
	cmd := &cobra.Command{
		Use:   "batch <file|dir>... [-- compiler flags]",
		Short: "Extract many headers, one translation unit each",
		Long: `Extract every header named on the command line. Directories are walked
for header files; version control and build directories are skipped.

Each file is compiled on its own. Output is printed in input order, and the
command fails after all files are processed if any of them did not compile.

Examples:
  type-extractor batch include/
  type-extractor batch --workers 8 include/ -- -x c++ -Iinclude`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, flags := args, []string(nil)
			if dash := cmd.ArgsLenAtDash(); dash >= 0 {
				paths, flags = args[:dash], args[dash:]
			}
			if len(paths) == 0 {
				return errors.InputError("no headers or directories given")
			}

			opts := batch.Options{
				Workers:    a.cfg.Batch.Workers,
				Extensions: a.cfg.Batch.Extensions,
				FailFast:   failFast,
				Args:       a.compilerArgs(flags),
				Logger:     a.logger.Logger,
				Stderr:     cmd.ErrOrStderr(),
			}
			if cmd.Flags().Changed("workers") {
				opts.Workers = workers
			}
			if len(extensions) > 0 {
				opts.Extensions = extensions
			}

			out, err := a.openSink(cmd.Context(), cmd.OutOrStdout(), strings.Join(paths, " "))
			if err != nil {
				return err
			}
			runner := batch.NewRunner(opts, out)
			files, err := runner.Collect(paths)
			if err != nil {
				return closeSink(out, err)
			}
			result, err := runner.Run(cmd.Context(), files)
			if err != nil {
				return closeSink(out, err)
			}
			if summary {
				for _, f := range result.Files {
					status := "ok"
					switch {
					case f.Skipped:
						status = "skipped"
					case f.Err != nil:
						status = "failed"
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "%-8s %4d  %s\n", status, f.Records, f.File)
				}
			}
			return closeSink(out, result.Err())
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "j", 0, "number of headers compiled in parallel (default from config)")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "stop at the first header that fails to compile")
	cmd.Flags().StringSliceVar(&extensions, "ext", nil, "header extensions collected from directories")
	cmd.Flags().BoolVar(&summary, "summary", false, "print a per-file summary to stderr")
	return cmd
}
