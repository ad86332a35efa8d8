package main

import (
	"github.com/spf13/cobra"

	"inkwell/internal/shellrun"
)

func newRunCommand(cmdCtx *commandContext) *cobra.Command {
	var logLevel string
	var development bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the shell process in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			return shellrun.Run(cmd.Context(), cfg, shellrun.Options{
				LogLevel:    logLevel,
				Development: development,
			})
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override configured log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&development, "development", false, "Log to stderr in console format")

	return cmd
}
