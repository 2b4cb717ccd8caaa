package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/agileclient/internal/flagx"
	"github.com/dmitrijs2005/agileclient/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Timeout may be
// written as "30s" or as integer nanoseconds.
type JsonConfig struct {
	APIURL       string         `json:"api_url"`
	User         string         `json:"user"`
	Password     string         `json:"password"`
	Timeout      timex.Duration `json:"timeout"`
	MaxTries     int            `json:"max_tries"`
	PieceSize    int64          `json:"piece_size"`
	Concurrency  int            `json:"concurrency"`
	ManifestPath string         `json:"manifest_path"`
	LogLevel     string         `json:"log_level"`
	Pretend      bool           `json:"pretend"`
	Checksum     bool           `json:"checksum"`
}

// parseJson overlays cfg with the file named by -c or -config. Fields absent
// from the file keep their current value. Read and decode errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.APIURL, jc.APIURL)
	setString(&cfg.User, jc.User)
	setString(&cfg.Password, jc.Password)
	setString(&cfg.ManifestPath, jc.ManifestPath)
	setString(&cfg.LogLevel, jc.LogLevel)
	if jc.Timeout.Duration > 0 {
		cfg.Timeout = jc.Timeout.Duration
	}
	if jc.MaxTries > 0 {
		cfg.MaxTries = jc.MaxTries
	}
	if jc.PieceSize > 0 {
		cfg.PieceSize = jc.PieceSize
	}
	if jc.Concurrency > 0 {
		cfg.Concurrency = jc.Concurrency
	}
	cfg.Pretend = cfg.Pretend || jc.Pretend
	cfg.Checksum = cfg.Checksum || jc.Checksum
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
