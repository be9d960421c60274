package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"feedrelay/internal/config"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var logLevelFlag string

	rootCmd := &cobra.Command{
		Use:           "feedrelay",
		Short:         "Relay media from RSS feeds to remote storage",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Override the configured log level")

	rootCmd.AddCommand(newRunCommand(&configFlag, &logLevelFlag))
	rootCmd.AddCommand(newStatusCommand(&configFlag))
	rootCmd.AddCommand(newConfigCommand(&configFlag))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// loadConfig resolves and loads the configuration, turning a missing
// file into actionable guidance.
func loadConfig(path string) (*config.Config, error) {
	cfg, resolved, err := config.Load(path)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return nil, fmt.Errorf("no configuration file found (tried %s); run 'feedrelay config init' to create one", resolved)
		}
		return nil, err
	}
	return cfg, nil
}

func printError(err error) {
	fmt.Fprintln(os.Stderr, "feedrelay:", err)
}
