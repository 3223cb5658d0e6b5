// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pdiddy/archive-engine/internal/store"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived documents, newest first",
	Long: `List prints every archived document with its kind, title, source, and age.
Files that cannot be decoded are reported on stderr and skipped.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(listCmd)
}

// listing is the JSON shape of one listed document.
type listing struct {
	Key       string `json:"key"`
	ID        string `json:"id"`
	Kind      string `json:"type"`
	Title     string `json:"title"`
	SourceURL string `json:"url,omitempty"`
	SourceRef string `json:"source_ref,omitempty"`
	CreatedAt int64  `json:"timestamp"`
	Size      int64  `json:"size"`
}

func runList(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}

	entries, skipped, err := s.Entries()
	if err != nil {
		return err
	}
	for _, key := range skipped {
		fmt.Fprintf(os.Stderr, "skipped unreadable document: %s\n", key)
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatListOutput(os.Stdout, entries, jsonOutput, time.Now())
}

func formatListOutput(w io.Writer, entries []store.Entry, jsonOutput bool, now time.Time) error {
	if jsonOutput {
		out := make([]listing, 0, len(entries))
		for _, e := range entries {
			d := e.Document
			out = append(out, listing{
				Key:       e.Key,
				ID:        d.ID,
				Kind:      string(d.Kind),
				Title:     d.Title,
				SourceURL: d.SourceURL,
				SourceRef: d.SourceRef,
				CreatedAt: d.CreatedAt,
				Size:      e.Size,
			})
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, "No documents archived.")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		d := e.Document
		created := "unknown"
		if d.CreatedAt > 0 {
			created = humanize.RelTime(d.Created(), now, "ago", "from now")
		}
		rows = append(rows, []string{
			e.Key,
			string(d.Kind),
			truncate(d.Title, 50),
			d.SourceRef,
			created,
			humanize.Bytes(uint64(e.Size)),
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"Key", "Type", "Title", "Source", "Created", "Size"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	))
	fmt.Fprintf(w, "%d documents\n", len(entries))
	return nil
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
