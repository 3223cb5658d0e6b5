// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the archive-engine pipeline:
// the archived Document record, stage configuration, and the error taxonomy
// every stage reports through.
package types

import "time"

// Kind identifies how a document's body was produced.
type Kind string

const (
	KindWebpage    Kind = "webpage"
	KindTranscript Kind = "transcript"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindWebpage || k == KindTranscript
}

// Document is one archived, normalized unit of content. Documents are
// immutable once persisted; re-ingesting a source creates a new Document.
type Document struct {
	// ID is "{CreatedAt}_{slug}" and doubles as the storage key stem.
	ID string `json:"id" yaml:"id"`

	// Kind is webpage or transcript.
	Kind Kind `json:"type" yaml:"type"`

	// Title is the display title. Never empty for documents built by the
	// ingestion pipeline.
	Title string `json:"title" yaml:"title"`

	// SourceURL is the locator the document was ingested from. Empty for
	// legacy records.
	SourceURL string `json:"url,omitempty" yaml:"url,omitempty"`

	// SourceRef is the domain for webpages and the video id for transcripts.
	SourceRef string `json:"source_ref,omitempty" yaml:"source_ref,omitempty"`

	// CreatedAt is the creation time in milliseconds since the Unix epoch.
	// Legacy records carry 0.
	CreatedAt int64 `json:"timestamp" yaml:"timestamp"`

	// Body is Markdown for webpages and plain text for transcripts.
	Body string `json:"content" yaml:"-"`
}

// Created returns CreatedAt as a time.Time, or the zero time for legacy records.
func (d Document) Created() time.Time {
	if d.CreatedAt == 0 {
		return time.Time{}
	}
	return time.UnixMilli(d.CreatedAt)
}
