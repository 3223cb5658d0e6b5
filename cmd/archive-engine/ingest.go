// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/archive-engine/internal/distill"
	"github.com/pdiddy/archive-engine/internal/httputil"
	"github.com/pdiddy/archive-engine/internal/ingest"
	"github.com/pdiddy/archive-engine/internal/store"
	"github.com/pdiddy/archive-engine/internal/ytdlp"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [locators...]",
	Short: "Archive web pages or video transcripts",
	Long: `Ingest classifies each locator as a video link or a web page. Video links
are archived as a normalized subtitle transcript (requires yt-dlp); web pages
are archived as Markdown distilled from the page's main content.

Every successful ingest creates a new document. When the archive exceeds its
capacity, the oldest documents are removed.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().Duration("timeout", 0, "bound on a single ingest (default 60s)")
	ingestCmd.Flags().String("user-agent", "", "User-Agent header for page fetches")
	ingestCmd.Flags().String("lang", "", "preferred subtitle language (default ko)")
	ingestCmd.Flags().String("ytdlp-bin", "", "subtitle retriever binary (default yt-dlp)")

	_ = viper.BindPFlag("timeout", ingestCmd.Flags().Lookup("timeout"))
	_ = viper.BindPFlag("user_agent", ingestCmd.Flags().Lookup("user-agent"))
	_ = viper.BindPFlag("subtitle_lang", ingestCmd.Flags().Lookup("lang"))
	_ = viper.BindPFlag("ytdlp_bin", ingestCmd.Flags().Lookup("ytdlp-bin"))

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more web page or video URLs")
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	cfg := pipelineConfig()

	tracks := ytdlp.New(cfg.YtDlpBin)
	if !tracks.Available() {
		logger.Warn("subtitle retriever not found; video links will fail", "bin", tracks.Name())
	}

	client := &http.Client{
		Timeout: cfg.Ingest.Timeout,
	}

	pipeline := ingest.New(cfg.Ingest, ingest.Deps{
		Store:     store.New(cfg.Store, logger),
		Fetcher:   httputil.NewFetcher(client, cfg.Ingest.UserAgent, logger),
		Tracks:    tracks,
		Distiller: distill.New(logger),
		Logger:    logger,
	})

	result := pipeline.IngestBatch(cmd.Context(), args, os.Stdout)
	if result.HasFailures() {
		return fmt.Errorf("%d locator(s) failed ingestion", result.Failed)
	}
	return nil
}
