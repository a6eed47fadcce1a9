package storage

import (
	"context"

	"imagescraper/internal/domain"
)

// Repository stores the history of download attempts.
type Repository interface {
	// SaveRecord stores the latest attempt for record.URL, replacing an earlier one.
	SaveRecord(ctx context.Context, record domain.DownloadRecord) error

	// ListRecords returns up to limit records, newest first. A limit <= 0 returns everything.
	ListRecords(ctx context.Context, limit int) ([]domain.DownloadRecord, error)

	// DeleteRecord removes the record for url. Deleting a missing record is not an error.
	DeleteRecord(ctx context.Context, url string) error

	Close() error
}
