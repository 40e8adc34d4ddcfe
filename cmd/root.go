// Package cmd implements the claudebridge command line.
//
// It defines the root command and its subcommands using Cobra, binds flags
// onto the viper configuration and sets up logging before a subcommand runs.
package cmd

import (
	"claudebridge/config"
	"claudebridge/logging"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ApplicationName is the name of the binary.
const ApplicationName = "claudebridge"

// Application version (can be overridden at build time)
var version = "dev"

// flagKeys maps flag names to the configuration keys they override.
var flagKeys = map[string]string{
	"log-level":  "logging.level",
	"log-format": "logging.format",
	"log-output": "logging.output",
	"host":       "server.host",
	"port":       "server.port",
	"binary":     "claude.binary_path",
	"work-dir":   "claude.work_dir",
	"timeout":    "claude.timeout",
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   ApplicationName,
		Short: "Bridge webhook callers to the Claude Code CLI",
		Long: `claudebridge exposes a small HTTP API that forwards a prompt to the
locally installed Claude Code CLI and relays its output back as JSON.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the YAML configuration file (default ./"+config.DefaultConfigFile+" if present)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")
	rootCmd.PersistentFlags().String("log-output", "", "Log output: stdout, stderr or a file path")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		logrus.Errorf("Command execution failed: %v", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig binds the command's flags onto a fresh viper instance and loads
// the configuration from file and environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := config.New()
	if err := bindFlags(v, cmd); err != nil {
		return nil, err
	}

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	return config.LoadConfig(v, configPath)
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// setup loads the configuration and initializes the logger.
func setup(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}
	logging.InitLogger()
	return cfg, nil
}
