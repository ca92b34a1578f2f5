package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/SanjoDeundiak/process-handle/pkg/lib/config"
)

// cliApp carries state shared by all subcommands.
type cliApp struct {
	cfgFile string
}

func NewRootCmd() *cobra.Command {
	app := &cliApp{}

	root := &cobra.Command{
		Use:           "prh",
		Short:         "Process Handle CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&app.cfgFile, "config", "c", "", "config file (default is $HOME/.config/prh/config.yaml)")

	root.AddCommand(newRunCmd(app))
	root.AddCommand(newJournalCmd())
	root.AddCommand(newConfigCmd(app))

	return root
}

// viper returns a viper instance with the flags of cmd bound to their config
// keys. Only flags that were set override file and environment values.
func (app *cliApp) viper(cmd *cobra.Command, bindings map[string]string) (*viper.Viper, error) {
	v, err := config.NewViper(app.cfgFile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config")
	}

	for key, flag := range bindings {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, errors.Wrapf(err, "failed to bind flag %q", flag)
		}
	}
	return v, nil
}

func (app *cliApp) load(cmd *cobra.Command, bindings map[string]string) (*config.Config, error) {
	v, err := app.viper(cmd, bindings)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}
