// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <key...>",
	Short: "Remove archived documents",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}

	failed := 0
	for _, key := range args {
		if err := s.Delete(key); err != nil {
			fmt.Fprintf(os.Stdout, "failed:  %s (%v)\n", key, err)
			failed++
			continue
		}
		fmt.Fprintf(os.Stdout, "deleted: %s\n", key)
	}
	if failed > 0 {
		return fmt.Errorf("%d document(s) could not be deleted", failed)
	}
	return nil
}
