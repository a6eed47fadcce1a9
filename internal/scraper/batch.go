package scraper

import (
	"context"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"imagescraper/internal/domain"
	"imagescraper/internal/downloader"
)

// Batch downloads a list of image URLs into one directory, one at a time.
type Batch struct {
	Dir        string
	Downloader *downloader.Downloader
	Log        logrus.FieldLogger

	// Limit stops the batch after that many successful downloads. Zero means no limit.
	Limit int

	// StopOnError aborts on the first failed item instead of skipping it.
	StopOnError bool
}

// Download fetches urls in order and returns what happened. On abort the partial result is returned
// together with the error.
func (b Batch) Download(ctx context.Context, urls []string) (domain.BatchResult, error) {
	log := b.Log.WithFields(logrus.Fields{"dir": b.Dir, "found": len(urls)})
	names := newFileNamer()
	var res domain.BatchResult

	for i, u := range urls {
		if b.Limit > 0 && res.Downloaded >= b.Limit {
			log.WithField("limit", b.Limit).Info("Image count reached")
			break
		}
		if err := ctx.Err(); err != nil {
			log.WithError(err).Warn("Batch cancelled")
			return res, err
		}

		dest := filepath.Join(b.Dir, names.next(u, i))
		res.Attempted++
		if err := b.Downloader.DownloadImage(ctx, u, dest); err != nil {
			res.Errors++
			if b.StopOnError || ctx.Err() != nil {
				log.WithError(err).Warn("Batch aborted")
				return res, err
			}
			continue
		}
		res.Downloaded++
		res.Files = append(res.Files, dest)
	}

	log.WithFields(logrus.Fields{
		"downloaded": res.Downloaded,
		"errors":     res.Errors,
		"attempted":  res.Attempted,
	}).Info("Batch finished")
	return res, nil
}
