package browser

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/firefox"

	"imagescraper/internal/domain"
)

// geckoDriver controls Firefox through a local geckodriver WebDriver service.
type geckoDriver struct {
	service *selenium.Service
	wd      selenium.WebDriver
	log     logrus.FieldLogger
}

func launchFirefox(ctx context.Context, cfg domain.ScraperConfig, log logrus.FieldLogger) (Driver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := exec.LookPath("geckodriver")
	if err != nil {
		return nil, fmt.Errorf("cannot find geckodriver: %w", err)
	}
	port, err := freePort()
	if err != nil {
		return nil, fmt.Errorf("failed to reserve a port for geckodriver: %w", err)
	}
	service, err := selenium.NewGeckoDriverService(path, port)
	if err != nil {
		return nil, fmt.Errorf("failed to start geckodriver: %w", err)
	}

	args := []string{"-start-maximized"}
	if cfg.Headless {
		args = append(args, "-headless")
	}
	caps := selenium.Capabilities{"browserName": "firefox"}
	caps.AddFirefox(firefox.Capabilities{Args: args})

	wd, err := selenium.NewRemote(caps, fmt.Sprintf("http://localhost:%d", port))
	if err != nil {
		_ = service.Stop()
		return nil, fmt.Errorf("failed to open firefox session: %w", err)
	}
	// Firefox ignores -start-maximized on some platforms.
	if err := wd.MaximizeWindow(""); err != nil {
		log.WithError(err).Debug("Could not maximize firefox window")
	}

	log.WithFields(logrus.Fields{"driver": path, "port": port}).Debug("Geckodriver session opened")
	return &geckoDriver{service: service, wd: wd, log: log}, nil
}

func (d *geckoDriver) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.wd.Get(url)
}

func (d *geckoDriver) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	return d.wd.WaitWithTimeout(func(wd selenium.WebDriver) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		elems, err := wd.FindElements(selenium.ByCSSSelector, selector)
		if err != nil {
			return false, nil
		}
		return len(elems) > 0, nil
	}, timeout)
}

func (d *geckoDriver) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return d.wd.PageSource()
}

func (d *geckoDriver) CurrentURL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return d.wd.CurrentURL()
}

func (d *geckoDriver) Close() error {
	quitErr := d.wd.Quit()
	stopErr := d.service.Stop()
	if quitErr != nil {
		return fmt.Errorf("failed to quit firefox: %w", quitErr)
	}
	if stopErr != nil {
		return fmt.Errorf("failed to stop geckodriver: %w", stopErr)
	}
	return nil
}

func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
