package main

import (
	"github.com/spf13/cobra"

	"feedrelay/internal/runner"
)

func newRunCommand(configFlag, logLevelFlag *string) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the relay pipeline",
		Long: "Run the relay pipeline: reconcile local files, fetch feeds, " +
			"download new media, and upload everything pending. With a cron " +
			"expression configured the process stays resident and re-runs on " +
			"each trigger; otherwise it exits once the upload queue drains.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configFlag)
			if err != nil {
				return err
			}
			return runner.Run(cmd.Context(), cfg, runner.Options{
				LogLevel: *logLevelFlag,
				Once:     once,
			})
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Run a single pass even when a cron schedule is configured")
	return cmd
}
