package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"

	"imagescraper/internal/domain"
)

// rodDriver controls Chrome through the DevTools protocol.
type rodDriver struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	log      logrus.FieldLogger
}

func launchChrome(ctx context.Context, cfg domain.ScraperConfig, log logrus.FieldLogger) (Driver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, exists := launcher.LookPath()
	if !exists {
		return nil, errors.New("cannot find a Chrome or Chromium executable")
	}
	log.WithField("bin", path).Debug("Found browser executable")

	l := launcher.New().
		Context(ctx).
		Bin(path).
		Headless(cfg.Headless).
		Set("start-maximized")
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}
	if err := ctx.Err(); err != nil {
		l.Kill()
		return nil, err
	}

	// Without a default device rod leaves the window size to the start-maximized flag.
	browser := rod.New().ControlURL(u).NoDefaultDevice()
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	return &rodDriver{launcher: l, browser: browser, page: page, log: log}, nil
}

func (d *rodDriver) Navigate(ctx context.Context, url string) error {
	p := d.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return err
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("failed waiting for page load: %w", err)
	}
	return nil
}

func (d *rodDriver) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	p := d.page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()
	_, err := p.Element(selector)
	return err
}

func (d *rodDriver) HTML(ctx context.Context) (string, error) {
	return d.page.Context(ctx).HTML()
}

func (d *rodDriver) CurrentURL(ctx context.Context) (string, error) {
	info, err := d.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func (d *rodDriver) Close() error {
	err := d.browser.Close()
	d.launcher.Kill()
	d.launcher.Cleanup()
	if err != nil {
		return fmt.Errorf("error closing rod browser instance: %w", err)
	}
	return nil
}
