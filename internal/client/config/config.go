package config

import (
	"time"

	"github.com/dmitrijs2005/agileclient/internal/client/retry"
	"github.com/dmitrijs2005/agileclient/internal/client/upload"
)

// Config holds runtime settings shared by agilecli and agilesync.
//
// Units: Timeout is a time.Duration applied to every HTTP request; PieceSize
// is in bytes.
type Config struct {
	APIURL       string
	User         string
	Password     string
	Timeout      time.Duration
	MaxTries     int
	PieceSize    int64
	Concurrency  int
	ManifestPath string
	LogLevel     string
	Pretend      bool
	Checksum     bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIURL = "http://127.0.0.1:8080"
	c.Timeout = 30 * time.Second
	c.MaxTries = retry.DefaultMaxTries
	c.PieceSize = upload.DefaultPieceSize
	c.Concurrency = 4
	c.ManifestPath = "agilesync.db"
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
