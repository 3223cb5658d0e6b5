// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest turns a locator into an archived Document: it detects the
// source type, runs the matching extractor (page distillation or subtitle
// normalization), and saves the result to the store.
//
// Failures are reported as types.ErrInvalidInput, types.ErrExtractionFailed,
// or types.ErrStorageFailed and are never retried here. A failed ingest
// leaves no artifact behind.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/pdiddy/archive-engine/internal/distill"
	"github.com/pdiddy/archive-engine/internal/transcript"
	"github.com/pdiddy/archive-engine/pkg/types"
)

// Saver persists a document and returns its storage key.
type Saver interface {
	Save(d types.Document) (string, error)
}

// Fetcher retrieves the raw bytes behind a web locator.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// TrackSource resolves video titles and downloads subtitle tracks.
type TrackSource interface {
	Title(ctx context.Context, url string) (string, error)
	// Subtitles writes a track for url into dir, naming it with the given
	// prefix, and returns its path.
	Subtitles(ctx context.Context, url, lang, dir, name string) (string, error)
}

// Distiller extracts a page's title and Markdown body.
type Distiller interface {
	Distill(rawHTML, pageURL string) distill.Result
}

// Deps are the collaborators a Pipeline drives.
type Deps struct {
	Store     Saver
	Fetcher   Fetcher
	Tracks    TrackSource
	Distiller Distiller
	Logger    *slog.Logger

	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// Pipeline ingests locators into the store. It is safe for concurrent use;
// concurrent calls for the same locator produce distinct documents.
type Pipeline struct {
	cfg       types.IngestConfig
	store     Saver
	fetcher   Fetcher
	tracks    TrackSource
	distiller Distiller
	logger    *slog.Logger
	now       func() time.Time

	mu   sync.Mutex
	last int64 // last issued CreatedAt
}

// New creates a Pipeline.
func New(cfg types.IngestConfig, deps Deps) *Pipeline {
	p := &Pipeline{
		cfg:       cfg,
		store:     deps.Store,
		fetcher:   deps.Fetcher,
		tracks:    deps.Tracks,
		distiller: deps.Distiller,
		logger:    deps.Logger,
		now:       deps.Now,
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.distiller == nil {
		p.distiller = distill.New(p.logger)
	}
	if p.cfg.SubtitleLang == "" {
		p.cfg.SubtitleLang = types.DefaultSubtitleLang
	}
	return p
}

// Ingest archives the content behind locator and returns the saved document
// and its storage key. The whole call, including network and subprocess
// work, is bounded by the configured timeout.
func (p *Pipeline) Ingest(ctx context.Context, locator string) (*types.Document, string, error) {
	locator = strings.TrimSpace(locator)
	srcType, ref := Classify(locator)
	if srcType == SourceUnknown {
		return nil, "", fmt.Errorf("%w: unrecognized locator %q", types.ErrInvalidInput, locator)
	}
	if p.store == nil {
		return nil, "", fmt.Errorf("%w: no store configured", types.ErrStorageFailed)
	}

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	logger := p.logger.With("locator", locator, "source", srcType.String())
	logger.Info("ingesting")

	var (
		doc *types.Document
		err error
	)
	switch srcType {
	case SourceVideo:
		doc, err = p.ingestVideo(ctx, locator, ref, logger)
	case SourceWeb:
		doc, err = p.ingestPage(ctx, ref, logger)
	}
	if err != nil {
		logger.Warn("ingest failed", "error", err)
		return nil, "", err
	}

	key, err := p.store.Save(*doc)
	if err != nil {
		if !errors.Is(err, types.ErrStorageFailed) {
			err = fmt.Errorf("%w: %v", types.ErrStorageFailed, err)
		}
		logger.Warn("saving document failed", "id", doc.ID, "error", err)
		return nil, "", err
	}
	logger.Info("ingested", "key", key, "title", doc.Title)
	return doc, key, nil
}

// ingestPage fetches and distills a web page.
func (p *Pipeline) ingestPage(ctx context.Context, locator string, logger *slog.Logger) (*types.Document, error) {
	u, err := url.Parse(locator)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidInput, err)
	}
	if p.fetcher == nil {
		return nil, fmt.Errorf("%w: no page fetcher configured", types.ErrExtractionFailed)
	}

	raw, err := p.fetcher.Fetch(ctx, locator)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching %s: %v", types.ErrExtractionFailed, locator, err)
	}

	page := p.distiller.Distill(string(raw), locator)
	createdAt := p.stamp()
	doc := &types.Document{
		ID:        fmt.Sprintf("%d_%s_%s", createdAt, HostSlug(u), PathSlug(u)),
		Kind:      types.KindWebpage,
		Title:     cleanTitle(page.Title, "Untitled"),
		SourceURL: locator,
		SourceRef: strings.ToLower(u.Hostname()),
		CreatedAt: createdAt,
		Body:      sanitize(page.Markdown),
	}
	logger.Debug("page extracted", "id", doc.ID, "markdown_bytes", len(doc.Body))
	return doc, nil
}

// ingestVideo resolves the title, downloads the subtitle track into a
// private working directory, and normalizes it. The working directory is
// removed on every path.
func (p *Pipeline) ingestVideo(ctx context.Context, locator, videoID string, logger *slog.Logger) (*types.Document, error) {
	if p.tracks == nil {
		return nil, fmt.Errorf("%w: no subtitle retriever configured", types.ErrExtractionFailed)
	}

	title, err := p.tracks.Title(ctx, locator)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrExtractionFailed, err)
	}

	createdAt := p.stamp()
	id := fmt.Sprintf("%d_%s", createdAt, videoID)

	workDir := filepath.Join(p.cfg.WorkDir, ".work-"+uuid.NewString())
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating working directory: %v", types.ErrStorageFailed, err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			logger.Warn("removing working directory failed", "dir", workDir, "error", err)
		}
	}()

	trackPath, err := p.tracks.Subtitles(ctx, locator, p.cfg.SubtitleLang, workDir, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrExtractionFailed, err)
	}
	raw, err := os.ReadFile(trackPath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading subtitle track: %v", types.ErrExtractionFailed, err)
	}

	doc := &types.Document{
		ID:        id,
		Kind:      types.KindTranscript,
		Title:     cleanTitle(title, videoID),
		SourceURL: locator,
		SourceRef: videoID,
		CreatedAt: createdAt,
		Body:      sanitize(transcript.Normalize(string(raw))),
	}
	logger.Debug("transcript extracted", "id", doc.ID, "track", filepath.Base(trackPath), "text_bytes", len(doc.Body))
	return doc, nil
}

// stamp returns a creation time in milliseconds that is strictly greater
// than any previously issued by this pipeline.
func (p *Pipeline) stamp() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now().UnixMilli()
	if now <= p.last {
		now = p.last + 1
	}
	p.last = now
	return now
}

// sanitize makes body text valid UTF-8 with LF line endings and no control
// characters other than newline and tab.
func sanitize(text string) string {
	text = strings.ToValidUTF8(text, "\uFFFD")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)
}

// cleanTitle collapses whitespace in a title and substitutes fallback when
// nothing is left.
func cleanTitle(title, fallback string) string {
	title = strings.Join(strings.Fields(sanitize(title)), " ")
	if title == "" {
		return fallback
	}
	return title
}

// BatchResult holds the outcome of a batch ingest run.
type BatchResult struct {
	Ingested  int
	Failed    int
	Documents []*types.Document
	Keys      []string
}

// Total returns the total number of locators processed.
func (r BatchResult) Total() int {
	return r.Ingested + r.Failed
}

// HasFailures reports whether any locator failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// IngestBatch ingests each locator in turn, printing per-item status to w
// and returning a summary. It continues after individual failures.
func (p *Pipeline) IngestBatch(ctx context.Context, locators []string, w io.Writer) BatchResult {
	var result BatchResult
	for _, loc := range locators {
		doc, key, err := p.Ingest(ctx, loc)
		if err != nil {
			fmt.Fprintf(w, "failed:   %s (%v)\n", loc, err)
			result.Failed++
			continue
		}
		fmt.Fprintf(w, "ingested: %s (%s)\n", key, doc.Title)
		result.Ingested++
		result.Documents = append(result.Documents, doc)
		result.Keys = append(result.Keys, key)
	}
	fmt.Fprintf(w, "\nBatch summary: %d ingested, %d failed (total: %d)\n",
		result.Ingested, result.Failed, result.Total())
	return result
}
