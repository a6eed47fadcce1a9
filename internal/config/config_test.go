package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagescraper/internal/domain"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(viper.New(), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "./downloads", cfg.DownloadPath)
	assert.Equal(t, "chrome", cfg.Browser)
	assert.Equal(t, 2000, cfg.WaitTime)
	assert.Equal(t, "info", cfg.LogLevel)

	sc := cfg.ScraperConfig()
	assert.Equal(t, domain.Chrome, sc.Browser)
	assert.Equal(t, 2*time.Second, sc.WaitTime)
	assert.Equal(t, 30*time.Second, sc.ReadyTimeout)
	assert.Zero(t, sc.DownloadTimeout)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := "DOWNLOAD_PATH: /tmp/out\nIMAGE_COUNT: 25\nWAIT_TIME: 500\nBROWSER: firefox\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Setenv("IMAGE_COUNT", "7")
	t.Setenv("HEADLESS", "true")

	cfg, err := LoadConfig(viper.New(), dir)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/out", cfg.DownloadPath)
	assert.Equal(t, 7, cfg.ImageCount, "environment overrides the file")
	assert.True(t, cfg.Headless)

	sc := cfg.ScraperConfig()
	assert.Equal(t, domain.Firefox, sc.Browser)
	assert.Equal(t, 500*time.Millisecond, sc.WaitTime)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LOG_FORMAT=json\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("LOG_FORMAT") })

	cfg, err := LoadConfig(viper.New(), dir)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("BROWSER", "safari")
	_, err := LoadConfig(viper.New(), t.TempDir())
	assert.Error(t, err)

	t.Setenv("BROWSER", "chrome")
	t.Setenv("IMAGE_COUNT", "-3")
	_, err = LoadConfig(viper.New(), t.TempDir())
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := Config{LogLevel: "debug", LogFormat: "json"}.NewLogger(&buf)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	log.WithField("path", "/tmp/out/a.jpg").Info("Image downloaded")
	assert.Contains(t, buf.String(), `"msg":"Image downloaded"`)

	_, err = Config{LogLevel: "loud"}.NewLogger(&buf)
	assert.Error(t, err)
	_, err = Config{LogLevel: "info", LogFormat: "xml"}.NewLogger(&buf)
	assert.Error(t, err)
}
