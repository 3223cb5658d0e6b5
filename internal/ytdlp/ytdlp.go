// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ytdlp looks up video titles and downloads subtitle tracks by
// running the yt-dlp command-line tool.
package ytdlp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoTrack reports that yt-dlp ran successfully but wrote no subtitle
// track, typically because the video has none in the requested language.
var ErrNoTrack = errors.New("no subtitle track found")

const trackExt = ".vtt"

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Output(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Output runs name in dir and returns its stdout. A failing command's error
// carries its trimmed stderr.
func (osExecutor) Output(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return out, fmt.Errorf("%s: %w", name, ctx.Err())
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// Client runs yt-dlp.
type Client struct {
	bin  string
	exec executor
}

// New creates a client for the given yt-dlp binary name or path.
func New(bin string) *Client {
	return newClient(bin, osExecutor{})
}

func newClient(bin string, exec executor) *Client {
	if bin == "" {
		bin = "yt-dlp"
	}
	return &Client{bin: bin, exec: exec}
}

// Name returns the binary the client runs.
func (c *Client) Name() string { return c.bin }

// Available reports whether the binary is on PATH.
func (c *Client) Available() bool {
	_, err := c.exec.LookPath(c.bin)
	return err == nil
}

// Title returns the video's title.
func (c *Client) Title(ctx context.Context, url string) (string, error) {
	out, err := c.exec.Output(ctx, "", c.bin, "--get-title", "--no-warnings", "--", url)
	if err != nil {
		return "", fmt.Errorf("looking up title: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Subtitles downloads the subtitle track for url in lang, preferring
// uploaded subtitles and falling back to auto-generated ones. The track is
// written into dir with a file name starting with name. It returns the
// track's path, or ErrNoTrack when yt-dlp wrote nothing.
func (c *Client) Subtitles(ctx context.Context, url, lang, dir, name string) (string, error) {
	args := []string{
		"--write-sub",
		"--write-auto-sub",
		"--sub-lang", lang,
		"--skip-download",
		"--sub-format", "vtt",
		"--no-warnings",
		"-o", name + ".%(ext)s",
		"--", url,
	}
	if _, err := c.exec.Output(ctx, dir, c.bin, args...); err != nil {
		return "", fmt.Errorf("downloading subtitles: %w", err)
	}

	tracks, err := FindTracks(dir, name)
	if err != nil {
		return "", err
	}
	if len(tracks) == 0 {
		return "", fmt.Errorf("%w for language %q", ErrNoTrack, lang)
	}
	return tracks[0], nil
}

// FindTracks returns subtitle track files in dir whose names start with
// name, sorted by path.
func FindTracks(dir, name string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var tracks []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), name+".") && strings.HasSuffix(e.Name(), trackExt) {
			tracks = append(tracks, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(tracks)
	return tracks, nil
}
