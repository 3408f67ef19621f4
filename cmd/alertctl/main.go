package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"setup_scanner/internal/modules/config"
)

type options struct {
	configFile string
	backend    string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "alertctl",
		Short:         "Inspect and reset the scanner's alert cooldown store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "configs/values_local.yaml", "scanner config file")
	root.PersistentFlags().StringVarP(&opts.backend, "backend", "b", "", "override dedup.backend (file, sqlite, postgres, redis, memory)")

	root.AddCommand(
		newListCmd(opts),
		newCheckCmd(opts),
		newResetCmd(opts),
		newExplainCmd(opts),
	)
	return root
}

// loadConfig читает тот же yaml, что и сервис, через viper, накладывает
// флаги и прогоняет результат через config.Parse (дефолты и валидация).
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if opts.configFile != "" {
		if _, err := os.Stat(opts.configFile); err == nil {
			v.SetConfigFile(filepath.Clean(opts.configFile))
			if err := v.ReadInConfig(); err != nil {
				return nil, errors.Wrapf(err, "read config %s", opts.configFile)
			}
		} else if cmd.Flags().Changed("config") {
			return nil, errors.Wrapf(err, "config %s", opts.configFile)
		}
	}

	if cmd.Flags().Changed("backend") {
		v.Set("dedup.backend", opts.backend)
	}

	bs, err := yaml.Marshal(v.AllSettings())
	if err != nil {
		return nil, errors.Wrap(err, "marshal config to yaml")
	}
	cfg, err := config.Parse(bytes.NewReader(bs))
	if err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	return cfg, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "alertctl:", err)
		os.Exit(1)
	}
}
