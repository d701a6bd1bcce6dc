package main

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"

	"github.com/ynishi/issun-sub004/internal/logging"
)

var version = "dev"

// settings are process defaults taken from the environment. A flag set on
// the command line wins over its variable.
type settings struct {
	DataDir   string `env:"MECHSIM_DATA_DIR" envDefault:"./data"`
	LogLevel  string `env:"MECHSIM_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"MECHSIM_LOG_FORMAT" envDefault:"text"`
	Tuning    string `env:"MECHSIM_TUNING"`
}

var cfg settings

var rootCmd = &cobra.Command{
	Use:   "mechsim",
	Short: "Headless host for the mechanics kernels",
	Long: `mechsim steps mechanic families over a shared tick clock, journals
their events, indexes metric samples and writes snapshots.`,
	Version:           version,
	SilenceUsage:      true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := mergeEnv(&cfg, cmd.Flags().Changed); err != nil {
			return err
		}
		lvl, err := logging.ParseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		logging.Init(lvl, cfg.LogFormat, cmd.ErrOrStderr())
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DataDir, "data-dir", "", "directory for runs and the sample index (env MECHSIM_DATA_DIR)")
	pf.StringVar(&cfg.LogLevel, "log-level", "", "debug, info, warn or error (env MECHSIM_LOG_LEVEL)")
	pf.StringVar(&cfg.LogFormat, "log-format", "", "text or json (env MECHSIM_LOG_FORMAT)")
	pf.StringVar(&cfg.Tuning, "tuning", "", "tuning.yaml path (env MECHSIM_TUNING)")

	rootCmd.AddCommand(runCmd, replayCmd, validateCmd)
}

// mergeEnv fills every field whose flag was not changed from the environment.
func mergeEnv(s *settings, changed func(string) bool) error {
	var fromEnv settings
	if err := env.Parse(&fromEnv); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if !changed("data-dir") {
		s.DataDir = fromEnv.DataDir
	}
	if !changed("log-level") {
		s.LogLevel = fromEnv.LogLevel
	}
	if !changed("log-format") {
		s.LogFormat = fromEnv.LogFormat
	}
	if !changed("tuning") {
		s.Tuning = fromEnv.Tuning
	}
	return nil
}
