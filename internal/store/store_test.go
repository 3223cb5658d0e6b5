// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/archive-engine/pkg/types"
)

func newTestStore(t *testing.T, capacity int) *Store {
	t.Helper()
	return New(types.StoreConfig{DataDir: filepath.Join(t.TempDir(), "data"), Capacity: capacity}, nil)
}

func testDoc(i int) types.Document {
	ts := int64(1700000000000 + i)
	return types.Document{
		ID:        fmt.Sprintf("%d_examplecom_post%d", ts, i),
		Kind:      types.KindWebpage,
		Title:     fmt.Sprintf("Post %d", i),
		SourceURL: fmt.Sprintf("https://example.com/post%d", i),
		SourceRef: "example.com",
		CreatedAt: ts,
		Body:      fmt.Sprintf("# Post %d\n\nbody", i),
	}
}

// setModTime pins a stored item's modification time so ordering does not
// depend on filesystem timestamp resolution.
func setModTime(t *testing.T, s *Store, key string, mt time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(filepath.Join(s.Dir(), key), mt, mt))
}

func TestSaveGet(t *testing.T) {
	s := newTestStore(t, 0)
	doc := testDoc(1)

	key, err := s.Save(doc)
	require.NoError(t, err)
	assert.Equal(t, doc.ID+".md", key)

	got, err := s.Get(key)
	require.NoError(t, err)
	assert.Equal(t, doc, *got)

	_, err = os.Stat(filepath.Join(s.Dir(), key))
	require.NoError(t, err, "artifact should exist on disk")
}

func TestSave_LeavesNoTempFiles(t *testing.T) {
	s := newTestStore(t, 0)
	_, err := s.Save(testDoc(1))
	require.NoError(t, err)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, testDoc(1).ID+".md", entries[0].Name())
}

func TestList_MissingDirectory(t *testing.T) {
	s := newTestStore(t, 0)
	keys, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestList_OrderAndSuffixFilter(t *testing.T) {
	s := newTestStore(t, 0)
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 3; i++ {
		key, err := s.Save(testDoc(i))
		require.NoError(t, err)
		setModTime(t, s, key, base.Add(time.Duration(i)*time.Minute))
	}
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "123_abcdefghijk.ko.vtt"), []byte("WEBVTT"), 0o644))

	keys, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{testDoc(2).ID + ".md", testDoc(1).ID + ".md", testDoc(0).ID + ".md"}, keys)
}

func TestList_TieBreakByKey(t *testing.T) {
	s := newTestStore(t, 0)
	mt := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		key, err := s.Save(testDoc(i))
		require.NoError(t, err)
		setModTime(t, s, key, mt)
	}

	keys, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{testDoc(2).ID + ".md", testDoc(1).ID + ".md", testDoc(0).ID + ".md"}, keys)
}

func TestSave_RetentionCap(t *testing.T) {
	const total = 57
	s := newTestStore(t, types.DefaultCapacity)
	base := time.Now().Add(-2 * time.Hour)

	for i := 0; i < total; i++ {
		key, err := s.Save(testDoc(i))
		require.NoError(t, err)
		setModTime(t, s, key, base.Add(time.Duration(i)*time.Second))
	}
	// Non-suffixed working files neither count nor get evicted.
	vtt := filepath.Join(s.Dir(), "working.ko.vtt")
	require.NoError(t, os.WriteFile(vtt, []byte("WEBVTT"), 0o644))
	_, err := s.Save(testDoc(total))
	require.NoError(t, err)

	keys, err := s.List()
	require.NoError(t, err)
	require.Len(t, keys, types.DefaultCapacity)

	want := make([]string, 0, types.DefaultCapacity)
	for i := total; i > total-types.DefaultCapacity; i-- {
		want = append(want, testDoc(i).ID+".md")
	}
	assert.Equal(t, want, keys)

	_, err = os.Stat(vtt)
	assert.NoError(t, err, "working file should survive eviction")
}

func TestGet_Errors(t *testing.T) {
	s := newTestStore(t, 0)
	require.NoError(t, os.MkdirAll(s.Dir(), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "bad.md"), []byte("---\n[oops]\n---\n\nbody"), 0o644))

	_, err := s.Get("missing.md")
	assert.True(t, errors.Is(err, types.ErrNotFound), "got %v", err)

	_, err = s.Get("bad.md")
	assert.True(t, errors.Is(err, types.ErrMalformedArtifact), "got %v", err)

	for _, key := range []string{"", "../escape.md", "sub/dir.md", "notes.txt", ".hidden.md"} {
		_, err = s.Get(key)
		assert.True(t, errors.Is(err, types.ErrInvalidInput), "key %q: got %v", key, err)
	}
}

func TestGet_Legacy(t *testing.T) {
	s := newTestStore(t, 0)
	require.NoError(t, os.MkdirAll(s.Dir(), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "old-youtube-notes.md"), []byte("caption body"), 0o644))

	got, err := s.Get("old-youtube-notes.md")
	require.NoError(t, err)
	assert.Equal(t, "caption body", got.Body)
	assert.Equal(t, "old youtube notes", got.Title)
	assert.Equal(t, types.KindTranscript, got.Kind)
}

func TestDeleteThenGet(t *testing.T) {
	s := newTestStore(t, 0)
	key, err := s.Save(testDoc(1))
	require.NoError(t, err)

	require.NoError(t, s.Delete(key))

	_, err = s.Get(key)
	assert.True(t, errors.Is(err, types.ErrNotFound), "got %v", err)

	err = s.Delete(key)
	assert.True(t, errors.Is(err, types.ErrNotFound), "double delete should fail, got %v", err)
}

func TestEntries_SkipsUnreadable(t *testing.T) {
	s := newTestStore(t, 0)
	base := time.Now().Add(-time.Hour)

	good, err := s.Save(testDoc(1))
	require.NoError(t, err)
	setModTime(t, s, good, base)

	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "broken.md"), []byte("---\n[unclosed\n---\n\nx"), 0o644))
	setModTime(t, s, "broken.md", base.Add(time.Minute))

	entries, skipped, err := s.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, good, entries[0].Key)
	assert.Equal(t, "Post 1", entries[0].Document.Title)
	assert.Equal(t, []string{"broken.md"}, skipped)
}

func TestSave_EvictionFailureDoesNotFailSave(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))
	s := New(types.StoreConfig{DataDir: filepath.Join(t.TempDir(), "data"), Capacity: 10}, logger)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 4; i++ {
		key, err := s.Save(testDoc(i))
		require.NoError(t, err)
		setModTime(t, s, key, base.Add(time.Duration(i)*time.Second))
	}

	stuck := testDoc(1).ID + ".md"
	s.capacity = 1
	s.remove = func(name string) error {
		if filepath.Base(name) == stuck {
			return errors.New("permission denied")
		}
		return os.Remove(name)
	}

	key, err := s.Save(testDoc(4))
	require.NoError(t, err)
	assert.Equal(t, testDoc(4).ID+".md", key)

	keys, err := s.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{key, stuck}, keys)
	assert.Contains(t, logs.String(), "failed to evict document")
	assert.Contains(t, logs.String(), stuck)
	assert.Contains(t, logs.String(), "permission denied")
}

func TestSaveGet_TitleWithNoncharacter(t *testing.T) {
	s := newTestStore(t, 0)
	doc := testDoc(1)
	doc.Title = "broken \uFFFE title \u0085 here"

	key, err := s.Save(doc)
	require.NoError(t, err)

	got, err := s.Get(key)
	require.NoError(t, err)
	assert.Equal(t, doc.Title, got.Title)
}
