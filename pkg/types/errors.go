// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// Failure categories reported by the pipeline and the store. Callers match
// them with errors.Is; the wrapped message carries the underlying cause.
var (
	// ErrInvalidInput reports a missing or unparseable locator or key.
	ErrInvalidInput = errors.New("invalid input")

	// ErrExtractionFailed reports a network, parsing, or external tool
	// failure during ingestion.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrMalformedArtifact reports a stored record that cannot be decoded.
	ErrMalformedArtifact = errors.New("malformed artifact")

	// ErrNotFound reports a missing key on get or delete.
	ErrNotFound = errors.New("not found")

	// ErrStorageFailed reports a filesystem write or permission failure.
	ErrStorageFailed = errors.New("storage failed")
)
