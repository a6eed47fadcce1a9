// Package browsertest provides an in-memory browser driver for tests.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"imagescraper/internal/browser"
	"imagescraper/internal/domain"
)

// Driver serves canned HTML per URL. A selector counts as present when the
// current page's HTML contains it as a substring.
type Driver struct {
	Pages map[string]string

	// NavigateErr, when set, is returned by every Navigate call.
	NavigateErr error

	mu      sync.Mutex
	current string
	visited []string
	closed  int
}

// New returns a driver serving pages.
func New(pages map[string]string) *Driver {
	return &Driver{Pages: pages}
}

// Launcher returns a browser.LaunchFunc that hands out d.
func (d *Driver) Launcher() browser.LaunchFunc {
	return func(context.Context, domain.ScraperConfig, logrus.FieldLogger) (browser.Driver, error) {
		return d, nil
	}
}

// FailingLauncher returns a browser.LaunchFunc that always fails with err.
func FailingLauncher(err error) browser.LaunchFunc {
	return func(context.Context, domain.ScraperConfig, logrus.FieldLogger) (browser.Driver, error) {
		return nil, err
	}
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.NavigateErr != nil {
		return d.NavigateErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.Pages[url]; !ok {
		return fmt.Errorf("no page registered for %s", url)
	}
	d.current = url
	d.visited = append(d.visited, url)
	return nil
}

func (d *Driver) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	d.mu.Lock()
	html := d.Pages[d.current]
	d.mu.Unlock()
	if strings.Contains(html, selector) {
		return nil
	}
	select {
	case <-time.After(timeout):
		return errors.New("timed out")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Driver) HTML(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Pages[d.current], nil
}

func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current, nil
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed++
	return nil
}

// Closed reports how many times Close was called.
func (d *Driver) Closed() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Visited lists navigated URLs in order.
func (d *Driver) Visited() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.visited...)
}
