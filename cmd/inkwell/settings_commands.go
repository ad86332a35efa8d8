package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"inkwell/internal/settings"
)

func newSettingsCommand(cmdCtx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect and edit persisted settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print a setting value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openSettings(cmdCtx)
			if err != nil {
				return err
			}
			defer store.Close()

			value, ok, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("setting %q is not set", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a setting value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openSettings(cmdCtx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Set(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s=%s\n", args[0], args[1])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print all stored settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openSettings(cmdCtx)
			if err != nil {
				return err
			}
			defer store.Close()

			all, err := store.All(cmd.Context())
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(all))
			for key := range all {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			rows := make([][2]string, 0, len(keys))
			for _, key := range keys {
				rows = append(rows, [2]string{key, all[key]})
			}
			renderKeyValueTable(cmd.OutOrStdout(), rows)
			return nil
		},
	})

	return cmd
}

func openSettings(cmdCtx *commandContext) (*settings.Store, error) {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return nil, err
	}
	return settings.Open(cfg)
}
