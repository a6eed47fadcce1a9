package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"imagescraper/internal/scraper"
)

var (
	scrapeSelector      string
	scrapeReadySelector string
	scrapeStopOnError   bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <page-url>",
	Short: "Open a page in the browser and download the images on it.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureDownloadDir(); err != nil {
			return err
		}
		repo, closeRepo, err := openHistory()
		if err != nil {
			return err
		}
		defer closeRepo()

		runner := &scraper.Runner{
			Config:        cfg.ScraperConfig(),
			Log:           log,
			Selector:      scrapeSelector,
			ReadySelector: scrapeReadySelector,
			StopOnError:   scrapeStopOnError,
		}
		if repo != nil {
			runner.Recorder = repo
		}

		res, err := runner.Scrape(cmd.Context(), args[0])
		fmt.Fprintln(cmd.OutOrStdout(), res)
		return err
	},
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapeSelector, "selector", "img", "CSS selector matching image elements")
	scrapeCmd.Flags().StringVar(&scrapeReadySelector, "ready-selector", "", "wait for this CSS selector instead of the fixed wait time")
	scrapeCmd.Flags().BoolVar(&scrapeStopOnError, "stop-on-error", false, "abort on the first failed download")
	rootCmd.AddCommand(scrapeCmd)
}
