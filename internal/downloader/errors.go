package downloader

import (
	"errors"
	"fmt"
	"net/http"

	"imagescraper/internal/domain"
)

// Error kinds. Use errors.Is against these to classify a failed download.
var (
	ErrInvalidURL   = errors.New("invalid image url")
	ErrAccessDenied = errors.New("access denied")
	ErrDownload     = errors.New("download failed")
)

// Error describes a failed download attempt.
type Error struct {
	Kind       error
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%v: %s", e.Kind, e.URL)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d %s)", e.StatusCode, http.StatusText(e.StatusCode))
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func isAccessDenied(statusCode int) bool {
	return statusCode == http.StatusForbidden || statusCode == http.StatusUnauthorized
}

// statusOf maps an error returned by DownloadImage to the status stored in history.
func statusOf(err error) domain.DownloadStatus {
	switch {
	case err == nil:
		return domain.StatusOK
	case errors.Is(err, ErrInvalidURL):
		return domain.StatusInvalidURL
	case errors.Is(err, ErrAccessDenied):
		return domain.StatusAccessDenied
	default:
		return domain.StatusFailed
	}
}
