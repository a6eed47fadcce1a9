package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"imagescraper/internal/config"
	"imagescraper/internal/storage"
)

var (
	v         = viper.New()
	configDir string
	noHistory bool

	cfg config.Config
	log *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:           "imagescraper",
	Short:         "Drive Chrome or Firefox to find images on web pages and download them.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(v, configDir)
		if err != nil {
			return fmt.Errorf("error loading configuration: %w", err)
		}
		log, err = cfg.NewLogger(os.Stderr)
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{
			"download_path": cfg.DownloadPath,
			"browser":       cfg.Browser,
		}).Debug("Configuration loaded")
		return nil
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&configDir, "config-dir", "./configs", "directory holding config.yaml and .env")
	f.BoolVar(&noHistory, "no-history", false, "do not record downloads in the history database")

	f.String("download-path", "", "directory images are written to")
	f.Int("image-count", 0, "stop after this many images (0 = no limit)")
	f.Int("wait-time", 0, "milliseconds to let a page settle before collecting images")
	f.String("browser", "", "browser to drive: chrome or firefox")
	f.Bool("headless", false, "run the browser without a window")
	f.Int("download-timeout", 0, "milliseconds allowed per image download (0 = no deadline)")
	f.String("log-level", "", "log level (debug, info, warn, error)")
	f.String("log-format", "", "log format (text or json)")

	for key, flag := range map[string]string{
		"DOWNLOAD_PATH":    "download-path",
		"IMAGE_COUNT":      "image-count",
		"WAIT_TIME":        "wait-time",
		"BROWSER":          "browser",
		"HEADLESS":         "headless",
		"DOWNLOAD_TIMEOUT": "download-timeout",
		"LOG_LEVEL":        "log-level",
		"LOG_FORMAT":       "log-format",
	} {
		if err := v.BindPFlag(key, f.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

// openHistory opens the history database unless --no-history is set.
// The returned repository is nil when history is disabled.
func openHistory() (storage.Repository, func(), error) {
	if noHistory {
		return nil, func() {}, nil
	}
	repo, err := storage.NewBadgerRepository(cfg.BadgerDBPath, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return repo, func() {
		if err := repo.Close(); err != nil {
			log.WithError(err).Error("Error closing database")
		}
	}, nil
}

// ensureDownloadDir creates the download directory when it does not exist yet.
func ensureDownloadDir() error {
	if err := os.MkdirAll(cfg.DownloadPath, 0o755); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}
	return nil
}
