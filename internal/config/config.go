package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"imagescraper/internal/domain"
)

// Config holds all configuration for the application.
// Values are read by viper from a config file, a .env file, environment variables or bound flags.
type Config struct {
	DownloadPath string `mapstructure:"DOWNLOAD_PATH"`
	ImageCount   int    `mapstructure:"IMAGE_COUNT"`
	// WaitTime, ReadyTimeout and DownloadTimeout are in milliseconds.
	WaitTime        int    `mapstructure:"WAIT_TIME"`
	ReadyTimeout    int    `mapstructure:"READY_TIMEOUT"`
	DownloadTimeout int    `mapstructure:"DOWNLOAD_TIMEOUT"`
	Browser         string `mapstructure:"BROWSER"`
	Headless        bool   `mapstructure:"HEADLESS"`

	BadgerDBPath     string `mapstructure:"BADGERDB_PATH"`
	TelegramBotToken string `mapstructure:"TELEGRAM_BOT_TOKEN"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

// SetDefaults registers every key so environment variables are picked up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("DOWNLOAD_PATH", "./downloads")
	v.SetDefault("IMAGE_COUNT", 0)
	v.SetDefault("WAIT_TIME", 2000)
	v.SetDefault("READY_TIMEOUT", 30000)
	v.SetDefault("DOWNLOAD_TIMEOUT", 0)
	v.SetDefault("BROWSER", string(domain.Chrome))
	v.SetDefault("HEADLESS", false)
	v.SetDefault("BADGERDB_PATH", "./badger_data")
	v.SetDefault("TELEGRAM_BOT_TOKEN", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

// LoadConfig reads configuration from path/config.yaml, path/.env and the environment.
// Missing files are not an error.
func LoadConfig(v *viper.Viper, path string) (config Config, err error) {
	if err := godotenv.Load(filepath.Join(path, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("error reading .env file: %w", err)
	}

	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := config.validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c Config) validate() error {
	if c.DownloadPath == "" {
		return errors.New("DOWNLOAD_PATH is not set")
	}
	if c.ImageCount < 0 {
		return fmt.Errorf("IMAGE_COUNT must be >= 0, got %d", c.ImageCount)
	}
	if c.WaitTime < 0 || c.ReadyTimeout < 0 || c.DownloadTimeout < 0 {
		return errors.New("WAIT_TIME, READY_TIMEOUT and DOWNLOAD_TIMEOUT must be >= 0")
	}
	if _, err := domain.ParseBrowserKind(c.Browser); err != nil {
		return fmt.Errorf("BROWSER: %w", err)
	}
	return nil
}

// ScraperConfig converts the loaded values into the scraper's configuration.
func (c Config) ScraperConfig() domain.ScraperConfig {
	kind, _ := domain.ParseBrowserKind(c.Browser)
	return domain.ScraperConfig{
		DownloadPath:    c.DownloadPath,
		ImageCount:      c.ImageCount,
		WaitTime:        time.Duration(c.WaitTime) * time.Millisecond,
		Browser:         kind,
		Headless:        c.Headless,
		ReadyTimeout:    time.Duration(c.ReadyTimeout) * time.Millisecond,
		DownloadTimeout: time.Duration(c.DownloadTimeout) * time.Millisecond,
	}
}
