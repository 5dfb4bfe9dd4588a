// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperhound/internal/archive"
)

var packCmd = &cobra.Command{
	Use:   "pack [archive.zip]",
	Short: "Bundle downloaded PDFs and the summary CSV into a ZIP archive",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPack,
}

func init() {
	packCmd.Flags().String("dir", "downloads", "download directory to archive")

	rootCmd.AddCommand(packCmd)
}

func runPack(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	zipPath := "papers.zip"
	if len(args) == 1 {
		zipPath = args[0]
	}

	count, err := archive.Pack(dir, zipPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Archived %d file(s) to %s\n", count, zipPath)
	return nil
}
