package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"feedrelay/internal/config"
)

func newConfigCommand(configFlag *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newConfigInitCommand())
	cmd.AddCommand(newConfigShowCommand(configFlag))
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented sample configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}
			if !force {
				if _, statErr := os.Stat(path); statErr == nil {
					return fmt.Errorf("configuration already exists at %s (use --force to overwrite)", path)
				}
			}
			if err := config.CreateSample(path); err != nil {
				return err
			}
			fmt.Printf("wrote sample configuration to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration file")
	return cmd
}

func newConfigShowCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configFlag)
			if err != nil {
				return err
			}
			fmt.Printf("data dir:       %s\n", cfg.Paths.DataDir)
			fmt.Printf("database dir:   %s\n", cfg.Paths.DatabaseDir)
			fmt.Printf("cookie dir:     %s\n", cfg.Paths.CookieDir)
			fmt.Printf("log dir:        %s\n", cfg.Paths.LogDir)
			fmt.Printf("feeds:          %d configured\n", len(cfg.Feeds.Sources))
			for _, source := range cfg.Feeds.Sources {
				fmt.Printf("  - %s\n", source)
			}
			fmt.Printf("limits:         feed=%d download=%d upload=%d\n",
				cfg.Pipeline.FeedLimit, cfg.Pipeline.DownloadLimit, cfg.Pipeline.UploadLimit)
			fmt.Printf("remote path:    %s\n", cfg.Upload.RemotePath)
			fmt.Printf("extract binary: %s\n", cfg.Extract.Binary)
			fmt.Printf("upload binary:  %s\n", cfg.Upload.Binary)
			if cfg.Pipeline.Cron != "" {
				fmt.Printf("cron:           %s\n", cfg.Pipeline.Cron)
			}
			fmt.Printf("auto remove:    %t\n", cfg.Pipeline.AutoRemove)
			fmt.Printf("cookiecloud:    %t\n", cfg.CookieCloud.URL != "")
			fmt.Printf("notify targets: %d\n", len(cfg.Notify))
			return nil
		},
	}
}
