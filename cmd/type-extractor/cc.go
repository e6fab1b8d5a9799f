package main

import (
	"github.com/spf13/cobra"

	"github.com/rohankatakam/typextract/internal/errors"
	"github.com/rohankatakam/typextract/internal/frontend"
	"github.com/rohankatakam/typextract/internal/plugin"
)

func (a *app) newCCCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cc -- <compiler flags and files>",
		Short: "Compile headers and run the plugins named by -plugin",
		Long: `Compile the given files on the front-end and run every action loaded
with -plugin or -add-plugin, usually passed through -Xclang:

  type-extractor cc -- -Xclang -plugin -Xclang type-extractor api.h

Without plugins the files are only checked.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			args = a.compilerArgs(args)
			opts, err := frontend.ParseArgs(args)
			if err != nil {
				return errors.InputErrorf("%v", err)
			}

			out, err := a.openSink(cmd.Context(), cmd.OutOrStdout(), "cc")
			if err != nil {
				return err
			}
			actions, err := plugin.Load(plugin.Host{Out: out, Logger: a.logger.Logger}, opts)
			if err != nil {
				return closeSink(out, errors.ConfigError(err, "failed to load plugins"))
			}
			a.logger.WithField("plugins", opts.Plugins).Debug("Loaded plugins")

			runErr := frontend.Run(cmd.Context(), frontend.Invocation{
				Args:   args,
				Stderr: cmd.ErrOrStderr(),
				Logger: a.logger.Logger,
			}, actions...)
			return closeSink(out, wrapRunError(runErr, "cc"))
		},
	}
}
