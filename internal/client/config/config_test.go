package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", c.APIURL)
	assert.Equal(t, 30*time.Second, c.Timeout)
	assert.Equal(t, 5, c.MaxTries)
	assert.EqualValues(t, 10*1024*1024, c.PieceSize)
	assert.Equal(t, 4, c.Concurrency)
	assert.Equal(t, "info", c.LogLevel)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "http://127.0.0.1:8080", cfg.APIURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestLoadConfig_FlagsOverrideJSON(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, "", "", map[string]any{
		"api_url": "http://from-json",
		"user":    "json-user",
		"timeout": "5s",
	})
	os.Args = []string{"testbin", "-c", path, "-U", "flag-user", "-pretend", "/from", "/to"}

	cfg := LoadConfig()
	assert.Equal(t, "http://from-json", cfg.APIURL)
	assert.Equal(t, "flag-user", cfg.User)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.True(t, cfg.Pretend)
	assert.Equal(t, []string{"/from", "/to"}, Args())
}
