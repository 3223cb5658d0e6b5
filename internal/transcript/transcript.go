// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package transcript converts timed caption tracks (WebVTT) into plain-text
// transcripts.
//
// Auto-generated caption tracks emit rolling, overlapping cue windows over
// the same sentence. Normalize collapses a cue that extends or truncates the
// previous one into a single line instead of repeating it.
package transcript

import (
	"regexp"
	"strings"
)

var (
	// timingMarkerPattern matches inline word timings: <00:01:02.345>.
	timingMarkerPattern = regexp.MustCompile(`<\d{2}:\d{2}:\d{2}\.\d{3}>`)

	// styleTagPattern matches caption class spans: <c>, <c.colorE5E5E5>, </c>.
	styleTagPattern = regexp.MustCompile(`</?c(?:\.[\w.-]+)?>`)

	// whitespacePattern also covers no-break and other Unicode spaces that
	// show up in auto-generated tracks.
	whitespacePattern = regexp.MustCompile(`[\s\p{Zs}\x{2028}\x{2029}\x{FEFF}]+`)

	indexPattern = regexp.MustCompile(`^\d+$`)
)

const header = "WEBVTT"

// Normalize converts a raw caption track into a transcript: one line per
// distinct caption, lines separated by a blank line.
func Normalize(raw string) string {
	var n normalizer
	for _, line := range strings.Split(raw, "\n") {
		n.feed(line)
	}
	n.flush()
	return strings.Join(dropRepeats(n.lines), "\n\n")
}

// normalizer is the state carried across one forward pass over a track.
type normalizer struct {
	cue   []string // text lines of the current cue
	prev  string   // last line appended to lines
	lines []string // emitted lines
}

// feed consumes one line of the track. Structural lines close the current
// cue; text lines extend it.
func (n *normalizer) feed(line string) {
	line = strings.TrimSpace(strings.TrimPrefix(line, "\ufeff"))
	if isStructural(line) {
		n.flush()
		return
	}
	n.cue = append(n.cue, line)
}

// flush turns the buffered cue into a candidate line and merges it into the
// emitted lines.
func (n *normalizer) flush() {
	if len(n.cue) == 0 {
		return
	}
	candidate := clean(strings.Join(n.cue, " "))
	n.cue = n.cue[:0]

	if candidate == "" || candidate == n.prev {
		return
	}
	if n.prev != "" && (strings.HasPrefix(candidate, n.prev) || strings.HasPrefix(n.prev, candidate)) {
		// A growing or shrinking window over the previous line: keep the
		// longer of the two in place of the last line. prev is unchanged.
		longer := n.prev
		if len(candidate) > len(n.prev) {
			longer = candidate
		}
		n.lines[len(n.lines)-1] = longer
		return
	}
	n.lines = append(n.lines, candidate)
	n.prev = candidate
}

// isStructural reports whether a trimmed line carries no caption text.
func isStructural(line string) bool {
	switch {
	case line == "":
		return true
	case line == header, strings.HasPrefix(line, header+" "), strings.HasPrefix(line, header+"\t"):
		return true
	case strings.Contains(line, "-->"):
		return true
	case indexPattern.MatchString(line):
		return true
	case strings.HasPrefix(line, "Kind:"), strings.HasPrefix(line, "Language:"):
		return true
	}
	return false
}

// clean strips inline timing and styling markup and collapses whitespace.
func clean(text string) string {
	text = timingMarkerPattern.ReplaceAllString(text, "")
	text = styleTagPattern.ReplaceAllString(text, "")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// dropRepeats removes lines identical to the line before them. It runs after
// the merge pass and only catches exact duplicates the merge left behind.
func dropRepeats(lines []string) []string {
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		if i > 0 && line == lines[i-1] {
			continue
		}
		out = append(out, line)
	}
	return out
}
