package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"sms-bridge/internal/config"
	"sms-bridge/internal/logging"
)

var (
	configPath string
	logLevel   string

	cfg    *config.Config
	logger zerolog.Logger
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "sms-bridge",
	Short: "Capture bank SMS and serve the device inbox to a host application",
	Long: `sms-bridge receives SMS broadcasts, keeps the ones that look like bank or
payment messages in a local store, forwards them to connected hosts in real
time, and answers inbox queries over HTTP or from the command line.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ./config.yaml or $HOME/.config/sms-bridge/config.yaml)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	format := cfg.Log.Format
	if format == "" {
		format = "json"
		if cfg.IsDevelopment() {
			format = "console"
		}
	}
	logger = logging.New(cfg.Log.Level, format, os.Stderr)
	return nil
}
