package downloader

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagescraper/internal/domain"
)

type memoryRecorder struct {
	mu      sync.Mutex
	records []domain.DownloadRecord
}

func (r *memoryRecorder) SaveRecord(_ context.Context, rec domain.DownloadRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

type failingRecorder struct{}

func (failingRecorder) SaveRecord(context.Context, domain.DownloadRecord) error {
	return errors.New("disk full")
}

// newImageServer serves 1024 bytes at /a.jpg, 403 at /denied.jpg and 404 elsewhere.
func newImageServer(t *testing.T) (*httptest.Server, []byte, *int32) {
	t.Helper()
	payload := bytes.Repeat([]byte{0xAB}, 1024)
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		switch r.URL.Path {
		case "/a.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write(payload)
		case "/b.jpg":
			_, _ = w.Write([]byte("second"))
		case "/denied.jpg":
			http.Error(w, "forbidden", http.StatusForbidden)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, payload, &hits
}

func newTestDownloader(opts ...Option) (*Downloader, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return New(logger, opts...), hook
}

func TestDownloadImage_Success(t *testing.T) {
	srv, payload, _ := newImageServer(t)
	rec := &memoryRecorder{}
	d, hook := newTestDownloader(WithRecorder(rec))
	dest := filepath.Join(t.TempDir(), "a.jpg")

	err := d.DownloadImage(context.Background(), srv.URL+"/a.jpg", dest)
	require.NoError(t, err)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, got, "file should hold the exact response bytes")
	assert.Len(t, got, 1024)

	assert.Equal(t, Counters{Downloaded: 1, Errors: 0, Requests: 1}, d.Counters())
	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Message, "Image downloaded")
	assert.Contains(t, hook.LastEntry().Message, dest)

	require.Len(t, rec.records, 1)
	assert.Equal(t, domain.StatusOK, rec.records[0].Status)
	assert.Equal(t, int64(1024), rec.records[0].Bytes)
	assert.False(t, rec.records[0].Timestamp.IsZero())
}

func TestDownloadImage_AccessDenied(t *testing.T) {
	srv, _, _ := newImageServer(t)
	rec := &memoryRecorder{}
	d, hook := newTestDownloader(WithRecorder(rec))
	dest := filepath.Join(t.TempDir(), "a.jpg")
	require.NoError(t, os.WriteFile(dest, []byte("previous"), 0o644))

	err := d.DownloadImage(context.Background(), srv.URL+"/denied.jpg", dest)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.NotErrorIs(t, err, ErrDownload)

	var dlErr *Error
	require.ErrorAs(t, err, &dlErr)
	assert.Equal(t, http.StatusForbidden, dlErr.StatusCode)

	got, readErr := os.ReadFile(dest)
	require.NoError(t, readErr)
	assert.Equal(t, "previous", string(got), "pre-existing file must stay untouched")

	assert.Equal(t, Counters{Downloaded: 0, Errors: 1, Requests: 1}, d.Counters())
	assert.Contains(t, hook.LastEntry().Message, "Access denied")
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	require.Len(t, rec.records, 1)
	assert.Equal(t, domain.StatusAccessDenied, rec.records[0].Status)
	assert.Equal(t, http.StatusForbidden, rec.records[0].StatusCode)
}

func TestDownloadImage_AccessDeniedWritesNoFile(t *testing.T) {
	srv, _, _ := newImageServer(t)
	d, _ := newTestDownloader()
	dest := filepath.Join(t.TempDir(), "a.jpg")

	err := d.DownloadImage(context.Background(), srv.URL+"/denied.jpg", dest)
	require.ErrorIs(t, err, ErrAccessDenied)

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "no file should be written on 403")
}

func TestDownloadImage_InvalidURL(t *testing.T) {
	_, _, hits := newImageServer(t)
	rec := &memoryRecorder{}
	d, _ := newTestDownloader(WithRecorder(rec))
	dir := t.TempDir()

	for _, raw := range []string{"not a url", "/relative/a.jpg", "ftp://example.com/a.jpg", "http://"} {
		err := d.DownloadImage(context.Background(), raw, filepath.Join(dir, "x.jpg"))
		assert.ErrorIs(t, err, ErrInvalidURL, raw)
	}

	assert.Equal(t, int32(0), atomic.LoadInt32(hits), "no network I/O for malformed URLs")
	assert.Equal(t, Counters{Errors: 4}, d.Counters())
	require.Len(t, rec.records, 4)
	assert.Equal(t, domain.StatusInvalidURL, rec.records[0].Status)
	assert.Equal(t, "not a url", rec.records[0].URL)
}

func TestDownloadImage_GeneralErrors(t *testing.T) {
	srv, _, _ := newImageServer(t)
	d, hook := newTestDownloader()
	dir := t.TempDir()

	err := d.DownloadImage(context.Background(), srv.URL+"/missing.jpg", filepath.Join(dir, "m.jpg"))
	require.ErrorIs(t, err, ErrDownload)
	var dlErr *Error
	require.ErrorAs(t, err, &dlErr)
	assert.Equal(t, http.StatusNotFound, dlErr.StatusCode)
	assert.Contains(t, hook.LastEntry().Message, "Error occurred while downloading image")

	// Destination directory does not exist.
	err = d.DownloadImage(context.Background(), srv.URL+"/a.jpg", filepath.Join(dir, "no", "such", "a.jpg"))
	require.ErrorIs(t, err, ErrDownload)

	assert.Equal(t, Counters{Errors: 2, Requests: 2}, d.Counters())
}

func TestDownloadImage_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	d, _ := newTestDownloader()
	err := d.DownloadImage(context.Background(), addr+"/a.jpg", filepath.Join(t.TempDir(), "a.jpg"))
	require.ErrorIs(t, err, ErrDownload)
	assert.NotErrorIs(t, err, ErrAccessDenied)
	assert.Equal(t, 1, d.Counters().Errors)
}

func TestDownloadImage_Overwrites(t *testing.T) {
	srv, payload, _ := newImageServer(t)
	d, _ := newTestDownloader()
	dest := filepath.Join(t.TempDir(), "img.jpg")

	require.NoError(t, d.DownloadImage(context.Background(), srv.URL+"/a.jpg", dest))
	require.NoError(t, d.DownloadImage(context.Background(), srv.URL+"/b.jpg", dest))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got), "second download replaces the first")
	assert.NotEqual(t, len(payload), len(got))
	assert.Equal(t, 2, d.Counters().Downloaded)
}

func TestDownloadImage_RecorderFailureIsNotSurfaced(t *testing.T) {
	srv, _, _ := newImageServer(t)
	d, hook := newTestDownloader(WithRecorder(failingRecorder{}))

	err := d.DownloadImage(context.Background(), srv.URL+"/a.jpg", filepath.Join(t.TempDir(), "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, 1, d.Counters().Downloaded)

	var warned bool
	for _, e := range hook.AllEntries() {
		if strings.Contains(e.Message, "Failed to record download attempt") {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestDownloadImage_CancelledContext(t *testing.T) {
	srv, _, _ := newImageServer(t)
	d, _ := newTestDownloader()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := d.DownloadImage(ctx, srv.URL+"/a.jpg", filepath.Join(t.TempDir(), "a.jpg"))
	require.ErrorIs(t, err, ErrDownload)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDownloadImage_ClientLogsThroughLogrus(t *testing.T) {
	srv, _, _ := newImageServer(t)
	d, hook := newTestDownloader(WithClient(resty.New().SetBasicAuth("user", "secret")))

	require.NoError(t, d.DownloadImage(context.Background(), srv.URL+"/a.jpg", filepath.Join(t.TempDir(), "a.jpg")))

	var warning *logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && strings.Contains(e.Message, "Basic Auth") {
			warning = e
		}
	}
	require.NotNil(t, warning, "resty's insecure basic auth warning is emitted through logrus")
	assert.Equal(t, "downloader", warning.Data["component"])
}
