// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"net/url"
	"regexp"
	"strings"
)

// SourceType classifies a locator.
type SourceType int

const (
	SourceUnknown SourceType = iota
	SourceVideo
	SourceWeb
)

func (t SourceType) String() string {
	switch t {
	case SourceVideo:
		return "video"
	case SourceWeb:
		return "web"
	default:
		return "unknown"
	}
}

const (
	maxSlugLen   = 30
	fallbackSlug = "index"
)

// videoURLPattern matches watch, short-link, and shorts URLs carrying an
// 11-character video id.
var videoURLPattern = regexp.MustCompile(`^(https?://)?(www\.|m\.)?(youtube\.com/(watch\?v=|shorts/)|youtu\.be/)[a-zA-Z0-9_-]{11}`)

// videoIDPattern extracts the video id from a matched video URL.
var videoIDPattern = regexp.MustCompile(`(?:v=|/)([a-zA-Z0-9_-]{11})`)

// Classify determines the locator type and returns its reference: the video
// id for video URLs, the normalized URL for web pages.
func Classify(locator string) (SourceType, string) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return SourceUnknown, ""
	}

	if videoURLPattern.MatchString(locator) {
		if m := videoIDPattern.FindStringSubmatch(locator); m != nil {
			return SourceVideo, m[1]
		}
		return SourceUnknown, locator
	}

	u, err := url.Parse(locator)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return SourceUnknown, locator
	}
	return SourceWeb, u.String()
}

// PathSlug derives a short slug from the last segment of a URL path:
// ASCII letters and digits only, at most 30 characters, "index" when
// nothing remains.
func PathSlug(u *url.URL) string {
	segments := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	if len(segments) == 0 {
		return fallbackSlug
	}
	slug := alnum(segments[len(segments)-1])
	if len(slug) > maxSlugLen {
		slug = slug[:maxSlugLen]
	}
	if slug == "" {
		return fallbackSlug
	}
	return slug
}

// HostSlug reduces a host name to lowercase ASCII letters and digits.
func HostSlug(u *url.URL) string {
	return alnum(strings.ToLower(u.Hostname()))
}

func alnum(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return b.String()
}
