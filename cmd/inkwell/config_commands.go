package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"inkwell/internal/config"
)

func newConfigCommand(cmdCtx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration file operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if cmdCtx.configFlag != nil {
				path = strings.TrimSpace(*cmdCtx.configFlag)
			}
			if path == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				path = defaultPath
			} else {
				expanded, err := config.ExpandPath(path)
				if err != nil {
					return err
				}
				path = expanded
			}
			if err := config.CreateSample(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample config to %s\n", path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			source := cmdCtx.cfgPath
			if !cmdCtx.cfgExists {
				source = "(defaults)"
			}
			rows := [][2]string{
				{"Config file", source},
				{"Data dir", cfg.Paths.DataDir},
				{"Extensions dir", cfg.Paths.ExtensionsDir},
				{"Backup dir", cfg.Paths.BackupDir},
				{"Log dir", cfg.Paths.LogDir},
				{"Resources dir", cfg.Paths.ResourcesDir},
				{"Socket", cfg.Paths.SocketPath},
				{"UI command", cfg.UI.Command},
				{"Backup interval (min)", strconv.Itoa(cfg.Backup.IntervalMinutes)},
				{"Backup retain", strconv.Itoa(cfg.Backup.Retain)},
				{"Log format", cfg.Logging.Format},
				{"Log level", cfg.Logging.Level},
				{"Log retention (days)", strconv.Itoa(cfg.Logging.RetentionDays)},
			}
			renderKeyValueTable(cmd.OutOrStdout(), rows)
			return nil
		},
	})

	return cmd
}
