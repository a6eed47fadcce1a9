package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"imagescraper/internal/domain"
)

// DefaultReadyTimeout bounds WaitFor when no timeout is given.
const DefaultReadyTimeout = 30 * time.Second

// ErrSessionClosed is returned by page operations outside the Started state.
var ErrSessionClosed = errors.New("browser session is not running")

// LaunchError reports that the browser or its driver could not be started.
type LaunchError struct {
	Browser domain.BrowserKind
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Browser, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// Driver is the backend that controls one browser process.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error
	HTML(ctx context.Context) (string, error)
	CurrentURL(ctx context.Context) (string, error)
	Close() error
}

// LaunchFunc starts a browser and returns the driver controlling it.
type LaunchFunc func(ctx context.Context, cfg domain.ScraperConfig, log logrus.FieldLogger) (Driver, error)

// LauncherFor returns the launcher used for kind.
func LauncherFor(kind domain.BrowserKind) (LaunchFunc, error) {
	switch kind {
	case domain.Chrome:
		return launchChrome, nil
	case domain.Firefox:
		return launchFirefox, nil
	default:
		return nil, fmt.Errorf("no launcher for browser %q", kind)
	}
}

// State is the lifecycle position of a Session.
type State int

const (
	StateCreated State = iota
	StateStarted
	StateShutDown
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarted:
		return "started"
	case StateShutDown:
		return "shut down"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session owns one running browser.
type Session struct {
	kind domain.BrowserKind
	log  logrus.FieldLogger

	mu     sync.Mutex
	state  State
	driver Driver
}

// Start launches the browser named by cfg.Browser with a maximized window.
func Start(ctx context.Context, cfg domain.ScraperConfig, logger logrus.FieldLogger) (*Session, error) {
	launch, err := LauncherFor(cfg.Browser)
	if err != nil {
		return nil, &LaunchError{Browser: cfg.Browser, Err: err}
	}
	return StartWith(ctx, launch, cfg, logger)
}

// StartWith is Start with an explicit launcher.
func StartWith(ctx context.Context, launch LaunchFunc, cfg domain.ScraperConfig, logger logrus.FieldLogger) (*Session, error) {
	s := &Session{
		kind:  cfg.Browser,
		log:   logger.WithFields(logrus.Fields{"component": "browser", "browser": cfg.Browser}),
		state: StateCreated,
	}

	s.log.WithField("headless", cfg.Headless).Info("Launching browser")
	drv, err := launch(ctx, cfg, s.log)
	if err != nil {
		s.log.WithError(err).Error("Failed to launch browser")
		var launchErr *LaunchError
		if errors.As(err, &launchErr) {
			return nil, err
		}
		return nil, &LaunchError{Browser: cfg.Browser, Err: err}
	}

	s.driver = drv
	s.state = StateStarted
	s.log.Info("Browser started")
	return s, nil
}

// Kind reports which browser the session drives.
func (s *Session) Kind() domain.BrowserKind { return s.kind }

// State reports the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) running() (Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateStarted {
		return nil, fmt.Errorf("%w (state: %s)", ErrSessionClosed, s.state)
	}
	return s.driver, nil
}

// Wait pauses for d so that asynchronous page content can settle.
// Cancelling ctx ends the pause early; the interruption is logged and returned.
func (s *Session) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		s.log.WithError(ctx.Err()).WithField("wait", d).Warn("Wait interrupted")
		return ctx.Err()
	}
}

// WaitFor blocks until an element matching selector is present or timeout elapses.
func (s *Session) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	drv, err := s.running()
	if err != nil {
		return err
	}
	if timeout <= 0 {
		timeout = DefaultReadyTimeout
	}
	log := s.log.WithFields(logrus.Fields{"selector": selector, "timeout": timeout})
	log.Debug("Waiting for element")
	if err := drv.WaitFor(ctx, selector, timeout); err != nil {
		log.WithError(err).Warn("Element did not appear")
		return fmt.Errorf("waiting for %q: %w", selector, err)
	}
	return nil
}

// Navigate loads url in the session's page.
func (s *Session) Navigate(ctx context.Context, url string) error {
	drv, err := s.running()
	if err != nil {
		return err
	}
	s.log.WithField("url", url).Info("Navigating")
	if err := drv.Navigate(ctx, url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// HTML returns the rendered document.
func (s *Session) HTML(ctx context.Context) (string, error) {
	drv, err := s.running()
	if err != nil {
		return "", err
	}
	html, err := drv.HTML(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read page html: %w", err)
	}
	return html, nil
}

// CurrentURL returns the address of the loaded page.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	drv, err := s.running()
	if err != nil {
		return "", err
	}
	u, err := drv.CurrentURL(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read current url: %w", err)
	}
	return u, nil
}

// Shutdown terminates the browser. Calling it again, or on a session that never started, does nothing.
func (s *Session) Shutdown() error {
	s.mu.Lock()
	if s.state != StateStarted {
		s.state = StateShutDown
		s.mu.Unlock()
		return nil
	}
	drv := s.driver
	s.driver = nil
	s.state = StateShutDown
	s.mu.Unlock()

	s.log.Info("Shutting down browser")
	if err := drv.Close(); err != nil {
		s.log.WithError(err).Error("Error closing browser")
		return fmt.Errorf("error closing browser: %w", err)
	}
	s.log.Debug("Browser closed")
	return nil
}
