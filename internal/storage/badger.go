package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"imagescraper/internal/domain"
)

const recordPrefix = "download:"

// BadgerRepository implements Repository on top of BadgerDB.
type BadgerRepository struct {
	db  *badger.DB
	log logrus.FieldLogger
}

// NewBadgerRepository opens (or creates) the database at dbPath.
func NewBadgerRepository(dbPath string, logger logrus.FieldLogger) (*BadgerRepository, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = &badgerLogger{logger.WithField("component", "badgerdb")}

	db, err := badger.Open(opts)
	if err != nil {
		logger.WithError(err).Error("Failed to open BadgerDB")
		return nil, fmt.Errorf("failed to open badger db at %s: %w", dbPath, err)
	}
	logger.Info("BadgerDB opened successfully at path: ", dbPath)

	return &BadgerRepository{
		db:  db,
		log: logger.WithField("component", "history"),
	}, nil
}

// Close closes the database.
func (r *BadgerRepository) Close() error {
	r.log.Info("Closing BadgerDB...")
	if err := r.db.Close(); err != nil {
		r.log.WithError(err).Error("Error closing BadgerDB")
		return err
	}
	r.log.Info("BadgerDB closed.")
	return nil
}

// recordKey format: download:{url}
func recordKey(url string) []byte {
	return []byte(recordPrefix + url)
}

// SaveRecord implements Repository.
func (r *BadgerRepository) SaveRecord(ctx context.Context, record domain.DownloadRecord) error {
	log := r.log.WithFields(logrus.Fields{
		"url":    record.URL,
		"status": record.Status,
	})

	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}

	data, err := json.Marshal(record)
	if err != nil {
		log.WithError(err).Error("Failed to marshal download record")
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(recordKey(record.URL), data))
	})
	if err != nil {
		log.WithError(err).Error("Failed to save download record")
		return fmt.Errorf("failed to save record: %w", err)
	}

	log.Debug("Download record saved")
	return nil
}

// ListRecords implements Repository.
func (r *BadgerRepository) ListRecords(ctx context.Context, limit int) ([]domain.DownloadRecord, error) {
	var records []domain.DownloadRecord

	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(recordPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var rec domain.DownloadRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					return fmt.Errorf("failed to unmarshal record for key %s: %w", string(item.Key()), err)
				}
				records = append(records, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.log.WithError(err).Error("Failed to list download records")
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// DeleteRecord implements Repository.
func (r *BadgerRepository) DeleteRecord(ctx context.Context, url string) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(recordKey(url))
	})
	if err != nil {
		r.log.WithError(err).WithField("url", url).Error("Failed to delete download record")
		return fmt.Errorf("failed to delete record %s: %w", url, err)
	}
	return nil
}

// badgerLogger adapts logrus.FieldLogger to Badger's logger interface.
type badgerLogger struct {
	logger logrus.FieldLogger
}

func (l *badgerLogger) Errorf(f string, v ...interface{}) {
	l.logger.Errorf(f, v...)
}
func (l *badgerLogger) Warningf(f string, v ...interface{}) {
	l.logger.Warningf(f, v...)
}
func (l *badgerLogger) Infof(f string, v ...interface{}) {
	l.logger.Debugf(f, v...)
}
func (l *badgerLogger) Debugf(f string, v ...interface{}) {
	l.logger.Debugf(f, v...)
}
