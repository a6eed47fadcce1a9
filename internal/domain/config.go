package domain

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// BrowserKind selects which browser a session drives.
type BrowserKind string

const (
	Chrome  BrowserKind = "chrome"
	Firefox BrowserKind = "firefox"
)

// ParseBrowserKind converts a user supplied name into a BrowserKind.
func ParseBrowserKind(s string) (BrowserKind, error) {
	switch BrowserKind(strings.ToLower(strings.TrimSpace(s))) {
	case Chrome:
		return Chrome, nil
	case Firefox:
		return Firefox, nil
	default:
		return "", fmt.Errorf("unsupported browser %q (expected chrome or firefox)", s)
	}
}

func (k BrowserKind) String() string {
	return string(k)
}

// ScraperConfig holds the settings a scraper is built with.
// It is passed by value so a running scraper never observes changes made by its caller.
type ScraperConfig struct {
	// DownloadPath is the directory images are written to. It must exist.
	DownloadPath string

	// ImageCount is the number of images a run aims for. Zero means no limit.
	ImageCount int

	// WaitTime is the fixed pause given to a page before images are collected.
	WaitTime time.Duration

	Browser BrowserKind

	Headless bool

	// ReadyTimeout bounds a condition wait for a ready selector.
	ReadyTimeout time.Duration

	// DownloadTimeout bounds a single image fetch. Zero means no deadline.
	DownloadTimeout time.Duration
}

// Validate checks the invariants a scraper relies on.
func (c ScraperConfig) Validate() error {
	if c.DownloadPath == "" {
		return errors.New("download path is not set")
	}
	info, err := os.Stat(c.DownloadPath)
	if err != nil {
		return fmt.Errorf("download path %s: %w", c.DownloadPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("download path %s is not a directory", c.DownloadPath)
	}
	if c.ImageCount < 0 {
		return fmt.Errorf("image count must be >= 0, got %d", c.ImageCount)
	}
	if c.WaitTime < 0 {
		return fmt.Errorf("wait time must be >= 0, got %s", c.WaitTime)
	}
	if c.ReadyTimeout < 0 || c.DownloadTimeout < 0 {
		return errors.New("timeouts must be >= 0")
	}
	if _, err := ParseBrowserKind(string(c.Browser)); err != nil {
		return err
	}
	return nil
}
