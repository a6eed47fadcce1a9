package main

import (
	"errors"

	"github.com/spf13/cobra"

	"imagescraper/internal/bot"
	"imagescraper/internal/scraper"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram bot front-end (/scrape, /history).",
	RunE: func(cmd *cobra.Command, args []string) error {
		if noHistory {
			return errors.New("the bot needs the history database for /history; drop --no-history")
		}
		if err := ensureDownloadDir(); err != nil {
			return err
		}
		repo, closeRepo, err := openHistory()
		if err != nil {
			return err
		}
		defer closeRepo()

		runner := &scraper.Runner{
			Config:   cfg.ScraperConfig(),
			Recorder: repo,
			Log:      log,
		}
		handler, err := bot.NewHandler(cfg.TelegramBotToken, repo, runner, log)
		if err != nil {
			return err
		}

		log.Info("Bot is running. Press Ctrl+C to exit.")
		handler.Start(cmd.Context())
		log.Info("Bot shut down gracefully.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(botCmd)
}
