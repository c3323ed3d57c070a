// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of lifesim.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config loads and validates the simulation's JSON configuration
// file, following the teacher's load-then-validate-then-decode shape
// (internal/config/config.go's Init) but targeted at this simulation's
// own settings instead of cc-backend's HTTP/auth/archive configuration.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/joho/godotenv"

	log "github.com/ClusterCockpit/lifesim/pkg/log"
)

// APIConfig controls the optional debug/metrics HTTP server.
type APIConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
	Metrics bool   `json:"metrics"`
}

// JournalConfig controls the optional SQLite generation-stats journal.
type JournalConfig struct {
	Enabled            bool   `json:"enabled"`
	Path               string `json:"path"`
	Retention          string `json:"retention"`
	CompactionInterval string `json:"compaction_interval"`
}

// MaintenanceConfig controls the periodic background maintenance jobs.
type MaintenanceConfig struct {
	FootprintLogInterval string `json:"footprint_log_interval"`
}

// PublishConfig controls the optional NATS change-event publisher.
type PublishConfig struct {
	Enabled       bool   `json:"enabled"`
	Address       string `json:"address"`
	Username      string `json:"username,omitempty"`
	Password      string `json:"password,omitempty"`
	CredsFilePath string `json:"creds_file_path,omitempty"`
	Subject       string `json:"subject"`
}

// Config is the simulation's full JSON configuration.
type Config struct {
	Workers     int               `json:"workers"`
	PatternFile string            `json:"pattern_file"`
	OriginX     uint16            `json:"origin_x"`
	OriginY     uint16            `json:"origin_y"`
	Generations uint64            `json:"generations"`
	API         APIConfig         `json:"api"`
	Journal     JournalConfig     `json:"journal"`
	Maintenance MaintenanceConfig `json:"maintenance"`
	Publish     PublishConfig     `json:"publish"`
}

// Default returns the configuration used when no config file is given
// and no field is overridden by environment variables.
func Default() Config {
	return Config{
		Workers: runtime.NumCPU(),
		API: APIConfig{
			Enabled: true,
			Addr:    ":8080",
			Metrics: true,
		},
		Journal: JournalConfig{
			Enabled:            true,
			Path:               "./lifesim.db",
			Retention:          "168h",
			CompactionInterval: "1h",
		},
		Maintenance: MaintenanceConfig{
			FootprintLogInterval: "10m",
		},
		Publish: PublishConfig{
			Subject: "lifesim.generations",
		},
	}
}

// Load reads and validates the config file at path, applies it over
// Default(), then applies environment-variable overrides (after first
// loading any ".env" file present via godotenv, mirroring cc-backend's
// own .env-before-config-file startup order). An empty path returns
// Default() with only environment overrides applied.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("config: loading .env: %v", err)
	}

	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}

		if err := Validate(raw); err != nil {
			return nil, err
		}

		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LIFESIM_WORKERS"); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil && n > 0 {
			cfg.Workers = n
		} else {
			log.Warnf("config: ignoring invalid LIFESIM_WORKERS=%q", v)
		}
	}
	if v := os.Getenv("LIFESIM_PATTERN_FILE"); v != "" {
		cfg.PatternFile = v
	}
	if v := os.Getenv("LIFESIM_API_ADDR"); v != "" {
		cfg.API.Addr = v
	}
	if v := os.Getenv("LIFESIM_JOURNAL_PATH"); v != "" {
		cfg.Journal.Path = v
	}
	if v := os.Getenv("LIFESIM_PUBLISH_ADDRESS"); v != "" {
		cfg.Publish.Address = v
		cfg.Publish.Enabled = true
	}
}
