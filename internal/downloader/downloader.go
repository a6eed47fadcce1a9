package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"imagescraper/internal/domain"
)

// Recorder receives a record for every download attempt.
type Recorder interface {
	SaveRecord(ctx context.Context, record domain.DownloadRecord) error
}

// Counters is a snapshot of a downloader's tallies. Values never decrease.
type Counters struct {
	Downloaded int
	Errors     int
	Requests   int
}

// Downloader fetches images over HTTP and writes them to disk.
type Downloader struct {
	client   *resty.Client
	timeout  time.Duration
	recorder Recorder
	log      logrus.FieldLogger

	mu       sync.Mutex
	counters Counters
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithTimeout bounds every fetch. A zero duration leaves fetches without a deadline.
func WithTimeout(d time.Duration) Option {
	return func(dl *Downloader) { dl.timeout = d }
}

// WithRecorder reports every attempt to r.
func WithRecorder(r Recorder) Option {
	return func(dl *Downloader) { dl.recorder = r }
}

// WithClient replaces the default resty client. The client's own messages go to the downloader's logger.
func WithClient(c *resty.Client) Option {
	return func(dl *Downloader) { dl.client = c }
}

// New creates a downloader with zeroed counters.
func New(logger logrus.FieldLogger, opts ...Option) *Downloader {
	d := &Downloader{
		client: resty.New(),
		log:    logger.WithField("component", "downloader"),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.client.SetLogger(d.log)
	return d
}

// Counters returns the current tallies.
func (d *Downloader) Counters() Counters {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.counters
}

// DownloadImage fetches imageURL and writes the body to destinationPath, replacing any existing file.
// Failures are counted and returned as *Error; nothing is retried.
func (d *Downloader) DownloadImage(ctx context.Context, imageURL, destinationPath string) error {
	log := d.log.WithFields(logrus.Fields{
		"url":  imageURL,
		"path": destinationPath,
	})

	u, err := parseImageURL(imageURL)
	if err != nil {
		return d.fail(ctx, log, imageURL, destinationPath, &Error{Kind: ErrInvalidURL, URL: imageURL, Err: err})
	}

	n, code, err := d.fetch(ctx, u.String(), destinationPath)
	if err != nil {
		return d.fail(ctx, log, imageURL, destinationPath, err)
	}

	d.mu.Lock()
	d.counters.Downloaded++
	d.mu.Unlock()

	log.WithField("bytes", n).Info("Image downloaded: ", destinationPath)
	d.record(ctx, log, domain.DownloadRecord{
		URL:        imageURL,
		Path:       destinationPath,
		Status:     domain.StatusOK,
		StatusCode: code,
		Bytes:      n,
	})
	return nil
}

// fetch returns the number of bytes written and the response status.
func (d *Downloader) fetch(ctx context.Context, rawURL, destinationPath string) (int64, int, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	d.mu.Lock()
	d.counters.Requests++
	d.mu.Unlock()

	resp, err := d.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(rawURL)
	if resp != nil && resp.RawBody() != nil {
		defer resp.RawBody().Close()
	}
	if err != nil {
		return 0, 0, &Error{Kind: ErrDownload, URL: rawURL, Err: err}
	}

	code := resp.StatusCode()
	if isAccessDenied(code) {
		return 0, code, &Error{Kind: ErrAccessDenied, URL: rawURL, StatusCode: code}
	}
	if code < 200 || code > 299 {
		return 0, code, &Error{Kind: ErrDownload, URL: rawURL, StatusCode: code}
	}

	out, err := os.Create(destinationPath)
	if err != nil {
		return 0, code, &Error{Kind: ErrDownload, URL: rawURL, StatusCode: code, Err: err}
	}
	n, err := io.Copy(out, resp.RawBody())
	closeErr := out.Close()
	if err != nil {
		return n, code, &Error{Kind: ErrDownload, URL: rawURL, StatusCode: code, Err: fmt.Errorf("failed to write image: %w", err)}
	}
	if closeErr != nil {
		return n, code, &Error{Kind: ErrDownload, URL: rawURL, StatusCode: code, Err: fmt.Errorf("failed to close file: %w", closeErr)}
	}
	return n, code, nil
}

func (d *Downloader) fail(ctx context.Context, log logrus.FieldLogger, imageURL, destinationPath string, err error) error {
	d.mu.Lock()
	d.counters.Errors++
	d.mu.Unlock()

	rec := domain.DownloadRecord{
		URL:    imageURL,
		Path:   destinationPath,
		Status: statusOf(err),
		Error:  err.Error(),
	}
	var dlErr *Error
	if errors.As(err, &dlErr) {
		rec.StatusCode = dlErr.StatusCode
	}

	if errors.Is(err, ErrAccessDenied) {
		log.Warn("Access denied: ", imageURL)
	} else {
		log.WithError(err).Error("Error occurred while downloading image")
	}
	d.record(ctx, log, rec)
	return err
}

func (d *Downloader) record(ctx context.Context, log logrus.FieldLogger, rec domain.DownloadRecord) {
	if d.recorder == nil {
		return
	}
	rec.Timestamp = time.Now()
	// History is best effort. A cancelled batch still gets its last record written.
	if err := d.recorder.SaveRecord(context.WithoutCancel(ctx), rec); err != nil {
		log.WithError(err).Warn("Failed to record download attempt")
	}
}

// parseImageURL accepts absolute http and https URLs only.
func parseImageURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported or missing scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("missing host")
	}
	return u, nil
}
