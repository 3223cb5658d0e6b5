// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the archive-engine CLI.
// Subcommands ingest remote content into the archive and inspect or prune
// the stored documents.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/archive-engine/internal/logging"
	"github.com/pdiddy/archive-engine/internal/store"
	"github.com/pdiddy/archive-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the archive-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "archive-engine",
	Short: "Archive web pages and video transcripts as Markdown documents",
	Long: `archive-engine saves web articles and video subtitle transcripts into a
local flat-file archive. Each document is a Markdown file with a metadata
header; the archive keeps only the most recent documents up to its capacity.

Use ingest to add documents, list and show to read them back, and delete to
remove them.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default: ./archive-engine.yaml or ~/.config/archive-engine/archive-engine.yaml)")
	flags.String("data-dir", types.DefaultDataDir, "directory holding archived documents")
	flags.Int("capacity", types.DefaultCapacity, "number of documents retained")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "text", "log format: text or json")

	_ = viper.BindPFlag("data_dir", flags.Lookup("data-dir"))
	_ = viper.BindPFlag("capacity", flags.Lookup("capacity"))
	_ = viper.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("log_format", flags.Lookup("log-format"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("archive-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "archive-engine"))
		}
	}

	viper.SetEnvPrefix("ARCHIVE_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// pipelineConfig assembles the stage configuration from viper keys.
func pipelineConfig() types.PipelineConfig {
	cfg := types.PipelineConfig{
		Store: types.StoreConfig{
			DataDir:  viper.GetString("data_dir"),
			Capacity: viper.GetInt("capacity"),
		},
		Ingest: types.IngestConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("timeout"),
				UserAgent: viper.GetString("user_agent"),
			},
			SubtitleLang: viper.GetString("subtitle_lang"),
			WorkDir:      viper.GetString("work_dir"),
		},
		YtDlpBin: viper.GetString("ytdlp_bin"),
	}
	return cfg.WithDefaults()
}

func newLogger() (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:  viper.GetString("log_level"),
		Format: viper.GetString("log_format"),
		Writer: os.Stderr,
	})
}

// openStore builds the store from the current configuration.
func openStore() (*store.Store, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, err
	}
	return store.New(pipelineConfig().Store, logger), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
