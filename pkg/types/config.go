// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Defaults applied when a config value is left at its zero value.
const (
	DefaultCapacity     = 50
	DefaultTimeout      = 60 * time.Second
	DefaultUserAgent    = "archive-engine/0.1"
	DefaultSubtitleLang = "ko"
	DefaultYtDlpBin     = "yt-dlp"
	DefaultDataDir      = "data"
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout bounds a whole ingest call, including subprocesses.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "archive-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// StoreConfig holds settings for the retention store.
type StoreConfig struct {
	// DataDir is the directory holding one artifact per document.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Capacity is the number of documents retained (default 50).
	Capacity int `json:"capacity" yaml:"capacity"`
}

// IngestConfig holds settings for the ingestion pipeline.
type IngestConfig struct {
	HTTPConfig `yaml:",inline"`

	// SubtitleLang is the preferred subtitle language passed to the
	// subtitle retriever (default "ko").
	SubtitleLang string `json:"subtitle_lang" yaml:"subtitle_lang"`

	// WorkDir is where intermediate subtitle tracks are written. Defaults
	// to the store's DataDir.
	WorkDir string `json:"work_dir" yaml:"work_dir"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Store  StoreConfig  `json:"store" yaml:"store"`
	Ingest IngestConfig `json:"ingest" yaml:"ingest"`

	// YtDlpBin is the subtitle retriever binary (default "yt-dlp").
	YtDlpBin string `json:"ytdlp_bin" yaml:"ytdlp_bin"`
}

// WithDefaults returns a copy of c with zero values replaced by defaults.
func (c PipelineConfig) WithDefaults() PipelineConfig {
	if c.Store.DataDir == "" {
		c.Store.DataDir = DefaultDataDir
	}
	if c.Store.Capacity <= 0 {
		c.Store.Capacity = DefaultCapacity
	}
	if c.Ingest.Timeout <= 0 {
		c.Ingest.Timeout = DefaultTimeout
	}
	if c.Ingest.UserAgent == "" {
		c.Ingest.UserAgent = DefaultUserAgent
	}
	if c.Ingest.SubtitleLang == "" {
		c.Ingest.SubtitleLang = DefaultSubtitleLang
	}
	if c.Ingest.WorkDir == "" {
		c.Ingest.WorkDir = c.Store.DataDir
	}
	if c.YtDlpBin == "" {
		c.YtDlpBin = DefaultYtDlpBin
	}
	return c
}
