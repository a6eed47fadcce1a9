package domain

import "time"

// DownloadStatus classifies the outcome of a single download attempt.
type DownloadStatus string

const (
	StatusOK           DownloadStatus = "ok"
	StatusAccessDenied DownloadStatus = "access_denied"
	StatusInvalidURL   DownloadStatus = "invalid_url"
	StatusFailed       DownloadStatus = "failed"
)

// DownloadRecord is the persisted trace of one download attempt.
type DownloadRecord struct {
	// URL is the image URL that was requested (and the record's key).
	URL string `json:"url"`

	// Path is the destination file the image was (or would have been) written to.
	Path string `json:"path"`

	Status DownloadStatus `json:"status"`

	// StatusCode is the HTTP status of the response, 0 when no response was received.
	StatusCode int `json:"status_code,omitempty"`

	// Bytes written to Path.
	Bytes int64 `json:"bytes"`

	Error string `json:"error,omitempty"`

	// Timestamp indicates when the attempt finished.
	Timestamp time.Time `json:"timestamp"`
}
