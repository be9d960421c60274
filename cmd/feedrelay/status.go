package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"feedrelay/internal/store"
)

func newStatusCommand(configFlag *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show tracked resources and their lifecycle state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configFlag)
			if err != nil {
				return err
			}
			st, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			ctx := cmd.Context()
			stats, err := st.ResourceStats(ctx)
			if err != nil {
				return err
			}
			articles, err := st.ArticleCount(ctx)
			if err != nil {
				return err
			}
			resources, err := st.ListResources(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("articles seen: %d\n", articles)
			fmt.Printf("resources: %d uploaded, %d pending, %d failed\n\n",
				stats[store.StatusSuccess], stats[store.StatusUnknown], stats[store.StatusFail])

			if len(resources) == 0 {
				fmt.Println("no resources tracked yet")
				return nil
			}

			writer := table.NewWriter()
			writer.SetOutputMirror(os.Stdout)
			writer.AppendHeader(table.Row{"ID", "Name", "Download", "Upload", "Size", "Updated"})
			shown := 0
			for _, resource := range resources {
				if limit > 0 && shown >= limit {
					break
				}
				writer.AppendRow(table.Row{
					resource.ID,
					resource.Name,
					resource.DownloadStatus,
					resource.UploadStatus,
					formatSize(resource.Size),
					resource.UpdatedAt.Local().Format("2006-01-02 15:04"),
				})
				shown++
			}
			writer.Render()
			if limit > 0 && len(resources) > limit {
				fmt.Printf("(%d more not shown)\n", len(resources)-limit)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum rows to display (0 for all)")
	return cmd
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
