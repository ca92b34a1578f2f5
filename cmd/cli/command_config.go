package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/SanjoDeundiak/process-handle/pkg/lib/config"
)

func newConfigCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := app.viper(cmd, nil)
			if err != nil {
				return err
			}
			if _, err := config.Load(v); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if v.ConfigFileUsed() != "" {
				fmt.Fprintf(out, "Config file: %s\n", v.ConfigFileUsed())
			} else {
				fmt.Fprintf(out, "Config file: none (default is %s)\n", config.ConfigFile())
			}

			keys := v.AllKeys()
			sort.Strings(keys)
			for _, key := range keys {
				fmt.Fprintf(out, "%s = %v\n", key, v.Get(key))
			}
			return nil
		},
	}
}
