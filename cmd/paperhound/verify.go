// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperhound/internal/pdfcheck"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [files...]",
	Short: "Check that downloaded files are readable PDFs",
	Long: `Verify opens each file as a PDF, counts its pages, and scans the first
pages for a DOI. With no arguments every PDF in the download directory is
checked. The expected DOI is inferred from the filename; a mismatch between
it and the DOI printed inside the document is flagged.`,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().String("dir", "downloads", "download directory to scan when no files are given")

	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	files := args
	if len(files) == 0 {
		dir, _ := cmd.Flags().GetString("dir")
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("reading download directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".pdf") {
				continue
			}
			files = append(files, filepath.Join(dir, entry.Name()))
		}
		sort.Strings(files)
	}
	if len(files) == 0 {
		return fmt.Errorf("no PDF files to verify")
	}

	bad := 0
	for _, path := range files {
		rep, err := pdfcheck.Verify(path)
		if err != nil {
			bad++
			fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", path, err)
			continue
		}

		expected := doiFromFilename(path)
		if expected != "" && !rep.MatchesDOI(expected) {
			bad++
			fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: contains DOI %s, expected %s\n", path, rep.DOI, expected)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok   %s (%d pages)\n", path, rep.Pages)
	}

	if bad > 0 {
		return fmt.Errorf("%d file(s) failed verification", bad)
	}
	return nil
}

// doiFromFilename reverses the filename mangling applied on download:
// "10.1234_example.pdf" came from DOI "10.1234/example". Only the first
// underscore can be restored unambiguously; if the original DOI contained
// underscores or colons the result is best-effort and mismatches are not
// flagged by MatchesDOI unless the prefix already disagrees.
func doiFromFilename(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if !strings.HasPrefix(name, "10.") {
		return ""
	}
	return strings.Replace(name, "_", "/", 1)
}
