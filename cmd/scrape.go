package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newScrapeCmd() *cobra.Command {
	var page int
	var userID int64

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape one atlas listing page into blob storage",
		Long: `Scrape fetches one page of the atlas listing, follows every place on it
and writes the extracted records to blob storage. It runs in the foreground
without the job queue.

Examples:
  atlas scrape --page 3
  atlas scrape --page 0 --user 7   # report progress to user 7's stream`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if page < 0 {
				return fmt.Errorf("--page must be >= 0")
			}
			app, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			res, err := app.ScrapeOnce(cmd.Context(), userID, page)
			if err != nil {
				return fmt.Errorf("scrape page %d: %w", page, err)
			}
			out := cmd.OutOrStdout()
			color.New(color.FgGreen).Fprintf(out, "scraped page %d: %d records\n", page, res.File.Total)
			fmt.Fprintf(out, "blob: %s\nsha256: %s\n", res.BlobURI, res.ContentHash)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "listing page to scrape (0-based)")
	cmd.Flags().Int64Var(&userID, "user", 0, "user id credited with the job")
	return cmd
}
