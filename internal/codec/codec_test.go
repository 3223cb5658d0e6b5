// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package codec

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/archive-engine/pkg/types"
)

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		doc  types.Document
	}{
		{
			name: "webpage",
			doc: types.Document{
				ID:        "1700000000000_examplecom_MyPost",
				Kind:      types.KindWebpage,
				Title:     "My Post: a story",
				SourceURL: "https://example.com/blog/My-Post",
				SourceRef: "example.com",
				CreatedAt: 1700000000000,
				Body:      "# My Post\n\nSome *text* & <html>.\n",
			},
		},
		{
			name: "transcript",
			doc: types.Document{
				ID:        "1700000000001_dQw4w9WgXcQ",
				Kind:      types.KindTranscript,
				Title:     "Never \"Gonna\" Give You Up",
				SourceURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
				SourceRef: "dQw4w9WgXcQ",
				CreatedAt: 1700000000001,
				Body:      "hello world\n\nsecond line",
			},
		},
		{
			name: "body with delimiters and leading blank lines",
			doc: types.Document{
				ID:        "1700000000002_examplecom_index",
				Kind:      types.KindWebpage,
				Title:     "Delimiters",
				CreatedAt: 1700000000002,
				Body:      "\n\n---\nnot a header\n---\n",
			},
		},
		{
			name: "empty body and unicode title",
			doc: types.Document{
				ID:        "1700000000003_examplecom_index",
				Kind:      types.KindWebpage,
				Title:     "한국어 제목 — ünïcode",
				SourceRef: "example.com",
				CreatedAt: 1700000000003,
			},
		},
		{
			name: "title with next-line character",
			doc: types.Document{
				ID:        "1700000000004_examplecom_x",
				Kind:      types.KindWebpage,
				Title:     "a\u0085b",
				SourceRef: "example.com",
				CreatedAt: 1700000000004,
				Body:      "x",
			},
		},
		{
			name: "title with noncharacter",
			doc: types.Document{
				ID:        "1700000000005_examplecom_x",
				Kind:      types.KindWebpage,
				Title:     "a\uFFFEb",
				SourceRef: "example.com",
				CreatedAt: 1700000000005,
				Body:      "y\uFFFE",
			},
		},
		{
			name: "title with line separators",
			doc: types.Document{
				ID:        "1700000000006_dQw4w9WgXcQ",
				Kind:      types.KindTranscript,
				Title:     "one\u2028two: three # four",
				SourceRef: "dQw4w9WgXcQ",
				CreatedAt: 1700000000006,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.doc.ID+".md", Encode(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.doc, *got)
		})
	}
}

func TestEncode_Layout(t *testing.T) {
	out := string(Encode(types.Document{
		ID:        "1700000000000_dQw4w9WgXcQ",
		Kind:      types.KindTranscript,
		Title:     "Video",
		SourceURL: "https://youtu.be/dQw4w9WgXcQ",
		SourceRef: "dQw4w9WgXcQ",
		CreatedAt: 1700000000000,
		Body:      "text",
	}))

	assert.True(t, strings.HasPrefix(out, "---\n{\n"), "header should open with delimiter and JSON object")
	assert.Contains(t, out, `"videoId": "dQw4w9WgXcQ"`)
	assert.Contains(t, out, `"type": "transcript"`)
	assert.Contains(t, out, `"timestamp": 1700000000000`)
	assert.NotContains(t, out, `"domain"`)
	assert.True(t, strings.HasSuffix(out, "}\n---\n\ntext"), "body should follow one blank line")
}

func TestDecode_YoutubeTypeValue(t *testing.T) {
	artifact := "---\n" + `{
  "title": "Old Video",
  "url": "https://www.youtube.com/watch?v=abcdefghijk",
  "videoId": "abcdefghijk",
  "timestamp": 1690000000000,
  "type": "youtube"
}` + "\n---\n\nfirst\n\nsecond"

	got, err := Decode("1690000000000_abcdefghijk.md", []byte(artifact))
	require.NoError(t, err)
	assert.Equal(t, "1690000000000_abcdefghijk", got.ID)
	assert.Equal(t, types.KindTranscript, got.Kind)
	assert.Equal(t, "Old Video", got.Title)
	assert.Equal(t, "abcdefghijk", got.SourceRef)
	assert.Equal(t, int64(1690000000000), got.CreatedAt)
	assert.Equal(t, "first\n\nsecond", got.Body)
}

func TestDecode_ToleratesUnknownKeysAndYAML(t *testing.T) {
	artifact := "---\ntitle: Hand written\ntype: webpage\ndomain: example.org\ntimestamp: 42\nrating: 5\ntags: [a, b]\n---\n\nbody"

	got, err := Decode("42_exampleorg_page.md", []byte(artifact))
	require.NoError(t, err)
	assert.Equal(t, "Hand written", got.Title)
	assert.Equal(t, types.KindWebpage, got.Kind)
	assert.Equal(t, "example.org", got.SourceRef)
	assert.Equal(t, int64(42), got.CreatedAt)
	assert.Equal(t, "body", got.Body)
}

func TestDecode_CRLF(t *testing.T) {
	artifact := "---\r\n{\"title\": \"Windows\", \"type\": \"webpage\", \"timestamp\": 7}\r\n---\r\n\r\nline one\r\n"

	got, err := Decode("7_x_y.md", []byte(artifact))
	require.NoError(t, err)
	assert.Equal(t, "Windows", got.Title)
	assert.Equal(t, "line one\r\n", got.Body)
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name     string
		artifact string
	}{
		{"header not a mapping", "---\n[1, 2, 3]\n---\n\nbody"},
		{"header unparseable", "---\n{ \"title\": \"unterminated\n---\n\nbody"},
		{"empty header", "---\n---\n\nbody"},
		{"unknown type", "---\n{\"title\": \"x\", \"type\": \"podcast\"}\n---\n\nbody"},
		{"bad timestamp", "---\n{\"title\": \"x\", \"timestamp\": \"yesterday\"}\n---\n\nbody"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode("1_x.md", []byte(tt.artifact))
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrMalformedArtifact), "got %v", err)
		})
	}
}

func TestDecode_Legacy(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		artifact  string
		wantKind  types.Kind
		wantTitle string
	}{
		{
			name:      "plain text webpage",
			key:       "my-old-notes.md",
			artifact:  "just some text\nwith lines",
			wantKind:  types.KindWebpage,
			wantTitle: "my old notes",
		},
		{
			name:      "transcript id shape",
			key:       "1690000000000_dQw4w9WgXcQ.md",
			artifact:  "caption text",
			wantKind:  types.KindTranscript,
			wantTitle: "1690000000000 dQw4w9WgXcQ",
		},
		{
			name:      "youtube in name",
			key:       "youtube-talk.md",
			artifact:  "caption text",
			wantKind:  types.KindTranscript,
			wantTitle: "youtube talk",
		},
		{
			name:      "opening delimiter without close",
			key:       "draft.md",
			artifact:  "---\nno closing delimiter here",
			wantKind:  types.KindWebpage,
			wantTitle: "draft",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.key, []byte(tt.artifact))
			require.NoError(t, err)
			assert.Equal(t, tt.artifact, got.Body)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantTitle, got.Title)
			assert.Zero(t, got.CreatedAt)
		})
	}
}

func TestTitleFromKey(t *testing.T) {
	assert.Equal(t, "a b c", TitleFromKey("a-b_c.md"))
	assert.Equal(t, "Untitled", TitleFromKey("---.md"))
	assert.Equal(t, "notes", TitleFromKey("dir/notes.tar.gz"))
}
