package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			source := "defaults, no file at " + ctx.configPath
			if ctx.configSeen {
				source = ctx.configPath
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "# source: %s\n", source)
			return ctx.cfg.Write(cmd.OutOrStdout())
		},
	})

	return configCmd
}
