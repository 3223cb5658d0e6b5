// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package codec encodes Documents into the on-disk artifact format and
// decodes them back.
//
// An artifact is a delimited header holding every field except the body,
// followed by one blank line and the body verbatim:
//
//	---
//	{ "id": "...", "title": "...", "url": "...", "timestamp": 1700000000000, "type": "webpage", "domain": "..." }
//	---
//
//	<body>
//
// Headers are written as JSON and read as JSON first; a header that is not
// a JSON object is read as a YAML mapping so hand-edited headers decode. Artifacts without a header decode through
// a legacy fallback that treats the whole file as the body.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/archive-engine/pkg/types"
)

const (
	delimiter = "---"

	// typeYouTube is the transcript type value written by older archives.
	typeYouTube = "youtube"
)

// transcriptIDPattern matches the id shape of transcript documents:
// "{timestamp}_{11-character video id}".
var transcriptIDPattern = regexp.MustCompile(`^\d+_[A-Za-z0-9_-]{11}$`)

// header is the serialized form of a Document's metadata. Field order is
// the order keys appear in the artifact.
type header struct {
	ID        string `json:"id,omitempty"`
	Title     string `json:"title"`
	URL       string `json:"url,omitempty"`
	Timestamp int64  `json:"timestamp"`
	Type      string `json:"type"`
	Domain    string `json:"domain,omitempty"`
	VideoID   string `json:"videoId,omitempty"`
}

// Encode renders d as an artifact.
func Encode(d types.Document) []byte {
	h := header{
		ID:        d.ID,
		Title:     d.Title,
		URL:       d.SourceURL,
		Timestamp: d.CreatedAt,
		Type:      string(d.Kind),
	}
	if d.Kind == types.KindTranscript {
		h.VideoID = d.SourceRef
	} else {
		h.Domain = d.SourceRef
	}

	var b bytes.Buffer
	b.WriteString(delimiter + "\n")
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	// header holds only strings and integers; encoding cannot fail.
	_ = enc.Encode(h)
	b.WriteString(delimiter + "\n\n")
	b.WriteString(d.Body)
	return b.Bytes()
}

// Decode parses an artifact stored under key. The key's stem (the key
// without its extension) becomes the document ID. An artifact whose header
// is present but is not a mapping, or names an unknown type, fails with
// types.ErrMalformedArtifact. An artifact without a header decodes through
// the legacy fallback.
func Decode(key string, artifact []byte) (*types.Document, error) {
	text := string(artifact)
	rawHeader, body, ok := splitArtifact(text)
	if !ok {
		return decodeLegacy(key, text), nil
	}

	fields, err := parseHeader(rawHeader)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: parsing header: %v", types.ErrMalformedArtifact, key, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: %s: empty header", types.ErrMalformedArtifact, key)
	}

	d := &types.Document{
		ID:        stem(key),
		Title:     scalarString(fields["title"]),
		SourceURL: scalarString(fields["url"]),
		Body:      body,
	}
	if d.ID == "" {
		d.ID = scalarString(fields["id"])
	}

	ts, err := scalarInt(fields["timestamp"])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: timestamp: %v", types.ErrMalformedArtifact, key, err)
	}
	d.CreatedAt = ts

	switch typ := scalarString(fields["type"]); typ {
	case string(types.KindWebpage):
		d.Kind = types.KindWebpage
	case string(types.KindTranscript), typeYouTube:
		d.Kind = types.KindTranscript
	case "":
		d.Kind = InferKind(d.ID)
	default:
		return nil, fmt.Errorf("%w: %s: unknown type %q", types.ErrMalformedArtifact, key, typ)
	}

	if d.Kind == types.KindTranscript {
		d.SourceRef = firstNonEmpty(scalarString(fields["videoId"]), scalarString(fields["domain"]))
	} else {
		d.SourceRef = firstNonEmpty(scalarString(fields["domain"]), scalarString(fields["videoId"]))
	}

	if d.Title == "" {
		d.Title = TitleFromKey(d.ID)
	}
	return d, nil
}

// parseHeader reads the header as a JSON object, the format Encode writes.
// JSON and YAML disagree on some strings (U+0085, noncharacters), so YAML is
// only consulted when the header is not valid JSON.
func parseHeader(raw string) (map[string]any, error) {
	var fields map[string]any
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&fields); err == nil && !dec.More() {
		return fields, nil
	}

	fields = nil
	if err := yaml.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// decodeLegacy builds a Document from a headerless artifact. The title and
// kind are guessed from the key; CreatedAt is 0.
func decodeLegacy(key, text string) *types.Document {
	id := stem(key)
	return &types.Document{
		ID:    id,
		Kind:  InferKind(id),
		Title: TitleFromKey(key),
		Body:  text,
	}
}

// InferKind guesses a document's kind from its ID. It is a heuristic for
// records that carry no type: IDs shaped like "{timestamp}_{video id}" or
// mentioning youtube are transcripts, everything else is a webpage.
func InferKind(id string) types.Kind {
	if transcriptIDPattern.MatchString(id) || strings.Contains(strings.ToLower(id), typeYouTube) {
		return types.KindTranscript
	}
	return types.KindWebpage
}

// TitleFromKey derives a display title from a storage key: everything from
// the first dot is dropped and separators become spaces.
func TitleFromKey(key string) string {
	name := filepath.Base(key)
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return "Untitled"
	}
	return name
}

// splitArtifact separates the header from the body. The first line must be
// the delimiter and a later line must close the header. One blank line after
// the closing delimiter is consumed; the rest of the body is untouched.
func splitArtifact(text string) (rawHeader, body string, ok bool) {
	rest, found := cutDelimiterLine(text)
	if !found {
		return "", "", false
	}
	for pos := 0; pos <= len(rest); {
		line, next := rest[pos:], len(rest)+1
		if i := strings.IndexByte(rest[pos:], '\n'); i >= 0 {
			line, next = rest[pos:pos+i], pos+i+1
		}
		if strings.TrimRight(line, "\r") == delimiter {
			if next <= len(rest) {
				body = rest[next:]
			}
			if strings.HasPrefix(body, "\r\n") {
				body = body[2:]
			} else if strings.HasPrefix(body, "\n") {
				body = body[1:]
			}
			return rest[:pos], body, true
		}
		pos = next
	}
	return "", "", false
}

// cutDelimiterLine strips a leading delimiter line and reports whether one
// was present.
func cutDelimiterLine(text string) (string, bool) {
	for _, open := range []string{delimiter + "\n", delimiter + "\r\n"} {
		if rest, ok := strings.CutPrefix(text, open); ok {
			return rest, true
		}
	}
	return "", false
}

func stem(key string) string {
	return strings.TrimSuffix(filepath.Base(key), filepath.Ext(key))
}

// scalarString renders a header value as a string. Missing values and
// non-scalar values yield "".
func scalarString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case int, int64, uint64, float64, bool:
		return fmt.Sprint(x)
	default:
		return ""
	}
}

// scalarInt reads an integer header value. A missing value is 0.
func scalarInt(v any) (int64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case uint64:
		return int64(x), nil
	case float64:
		return int64(x), nil
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, nil
		}
		f, err := x.Float64()
		if err != nil {
			return 0, err
		}
		return int64(f), nil
	case string:
		if x == "" {
			return 0, nil
		}
		return strconv.ParseInt(x, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected value %v", v)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
