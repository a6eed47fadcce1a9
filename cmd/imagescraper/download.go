package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"imagescraper/internal/downloader"
	"imagescraper/internal/scraper"
)

var downloadStopOnError bool

var downloadCmd = &cobra.Command{
	Use:   "download <image-url>...",
	Short: "Download image URLs directly, without opening a browser.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureDownloadDir(); err != nil {
			return err
		}
		repo, closeRepo, err := openHistory()
		if err != nil {
			return err
		}
		defer closeRepo()

		sc := cfg.ScraperConfig()
		opts := []downloader.Option{downloader.WithTimeout(sc.DownloadTimeout)}
		if repo != nil {
			opts = append(opts, downloader.WithRecorder(repo))
		}

		res, err := scraper.Batch{
			Dir:         sc.DownloadPath,
			Downloader:  downloader.New(log, opts...),
			Log:         log,
			Limit:       sc.ImageCount,
			StopOnError: downloadStopOnError,
		}.Download(cmd.Context(), args)
		fmt.Fprintln(cmd.OutOrStdout(), res)
		return err
	},
}

func init() {
	downloadCmd.Flags().BoolVar(&downloadStopOnError, "stop-on-error", false, "abort on the first failed download")
	rootCmd.AddCommand(downloadCmd)
}
