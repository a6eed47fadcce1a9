package scraper

import (
	"context"

	"github.com/sirupsen/logrus"

	"imagescraper/internal/browser"
	"imagescraper/internal/domain"
	"imagescraper/internal/downloader"
	"imagescraper/internal/locator"
)

// Runner performs one-shot scrapes: start a browser, scrape one page, shut down.
type Runner struct {
	Config   domain.ScraperConfig
	Recorder downloader.Recorder
	Log      logrus.FieldLogger

	// Selector and ReadySelector are handed to the page locator.
	Selector      string
	ReadySelector string

	StopOnError bool

	// Launch overrides the browser launcher. Nil uses the configured browser.
	Launch browser.LaunchFunc
}

// Scrape downloads the images found on pageURL.
func (r *Runner) Scrape(ctx context.Context, pageURL string) (res domain.BatchResult, err error) {
	log := r.Log.WithField("page", pageURL)

	opts := []Option{WithStopOnError(r.StopOnError)}
	if r.Recorder != nil {
		opts = append(opts, WithRecorder(r.Recorder))
	}
	if r.Launch != nil {
		opts = append(opts, WithLauncher(r.Launch))
	}

	s, err := New(ctx, r.Config, log, opts...)
	if err != nil {
		return domain.BatchResult{}, err
	}
	defer func() {
		if closeErr := s.Shutdown(); closeErr != nil {
			log.WithError(closeErr).Error("Error shutting down scraper")
			if err == nil {
				err = closeErr
			}
		}
	}()

	return s.Run(ctx, locator.PageLocator{
		URL:           pageURL,
		Selector:      r.Selector,
		ReadySelector: r.ReadySelector,
		ReadyTimeout:  r.Config.ReadyTimeout,
		WaitTime:      r.Config.WaitTime,
	})
}
