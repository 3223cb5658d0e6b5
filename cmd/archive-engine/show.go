// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/archive-engine/pkg/types"
)

var showCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Print one archived document",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().Bool("json", false, "output the document as JSON")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}

	doc, err := s.Get(args[0])
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatShowOutput(os.Stdout, doc, jsonOutput)
}

func formatShowOutput(w io.Writer, doc *types.Document, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}

	fmt.Fprintf(w, "# %s\n\n", doc.Title)
	fmt.Fprintf(w, "Type:    %s\n", doc.Kind)
	if doc.SourceURL != "" {
		fmt.Fprintf(w, "Source:  %s\n", doc.SourceURL)
	}
	if doc.CreatedAt > 0 {
		fmt.Fprintf(w, "Created: %s\n", doc.Created().Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(w, "\n%s\n", doc.Body)
	return nil
}
