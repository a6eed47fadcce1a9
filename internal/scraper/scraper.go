// Package scraper composes a browser session, an image locator and a downloader into a scraping run.
package scraper

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"imagescraper/internal/browser"
	"imagescraper/internal/domain"
	"imagescraper/internal/downloader"
	"imagescraper/internal/locator"
)

// Scraper owns one browser session and one set of download counters.
type Scraper struct {
	cfg         domain.ScraperConfig
	session     *browser.Session
	downloader  *downloader.Downloader
	stopOnError bool
	log         logrus.FieldLogger
}

type options struct {
	launch         browser.LaunchFunc
	stopOnError    bool
	downloaderOpts []downloader.Option
}

// Option configures New.
type Option func(*options)

// WithLauncher starts the session with launch instead of the launcher for the configured browser.
func WithLauncher(launch browser.LaunchFunc) Option {
	return func(o *options) { o.launch = launch }
}

// WithRecorder records every download attempt.
func WithRecorder(r downloader.Recorder) Option {
	return func(o *options) { o.downloaderOpts = append(o.downloaderOpts, downloader.WithRecorder(r)) }
}

// WithDownloaderOptions passes extra options to the downloader.
func WithDownloaderOptions(opts ...downloader.Option) Option {
	return func(o *options) { o.downloaderOpts = append(o.downloaderOpts, opts...) }
}

// WithStopOnError makes Run abort on the first failed download.
func WithStopOnError(stop bool) Option {
	return func(o *options) { o.stopOnError = stop }
}

// New validates cfg and starts the browser. The returned scraper must be shut down by the caller.
func New(ctx context.Context, cfg domain.ScraperConfig, logger logrus.FieldLogger, opts ...Option) (*Scraper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scraper configuration: %w", err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var (
		session *browser.Session
		err     error
	)
	if o.launch != nil {
		session, err = browser.StartWith(ctx, o.launch, cfg, logger)
	} else {
		session, err = browser.Start(ctx, cfg, logger)
	}
	if err != nil {
		return nil, err
	}

	dlOpts := append([]downloader.Option{downloader.WithTimeout(cfg.DownloadTimeout)}, o.downloaderOpts...)
	return &Scraper{
		cfg:         cfg,
		session:     session,
		downloader:  downloader.New(logger, dlOpts...),
		stopOnError: o.stopOnError,
		log:         logger.WithField("component", "scraper"),
	}, nil
}

// Config returns the configuration the scraper was built with.
func (s *Scraper) Config() domain.ScraperConfig { return s.cfg }

// Session exposes the browser session to locators and callers.
func (s *Scraper) Session() *browser.Session { return s.session }

// Counters returns the download tallies accumulated so far.
func (s *Scraper) Counters() downloader.Counters { return s.downloader.Counters() }

// DownloadImage downloads one image while the session is running.
func (s *Scraper) DownloadImage(ctx context.Context, imageURL, destinationPath string) error {
	if st := s.session.State(); st != browser.StateStarted {
		return fmt.Errorf("%w (state: %s)", browser.ErrSessionClosed, st)
	}
	return s.downloader.DownloadImage(ctx, imageURL, destinationPath)
}

// Run discovers images with loc and downloads them into the configured directory.
func (s *Scraper) Run(ctx context.Context, loc locator.ImageLocator) (domain.BatchResult, error) {
	if st := s.session.State(); st != browser.StateStarted {
		return domain.BatchResult{}, fmt.Errorf("%w (state: %s)", browser.ErrSessionClosed, st)
	}

	urls, err := loc.Discover(ctx, s.session)
	if err != nil {
		s.log.WithError(err).Error("Failed to discover images")
		return domain.BatchResult{}, fmt.Errorf("failed to discover images: %w", err)
	}
	s.log.WithField("found", len(urls)).Info("Images discovered")

	return Batch{
		Dir:         s.cfg.DownloadPath,
		Downloader:  s.downloader,
		Log:         s.log,
		Limit:       s.cfg.ImageCount,
		StopOnError: s.stopOnError,
	}.Download(ctx, urls)
}

// Shutdown closes the browser. It is safe to call more than once.
func (s *Scraper) Shutdown() error {
	return s.session.Shutdown()
}
