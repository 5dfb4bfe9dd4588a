// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive bundles a run's downloads into a single ZIP file.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// summaryFile is included in the archive when present.
const summaryFile = "download_summary.csv"

// Pack writes every PDF in dir, plus the summary CSV if one exists, to a
// ZIP archive at zipPath. Returns the number of files archived.
func Pack(dir, zipPath string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading download directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(strings.ToLower(name), ".pdf") || name == summaryFile {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return 0, fmt.Errorf("nothing to archive in %s", dir)
	}

	f, err := os.Create(zipPath)
	if err != nil {
		return 0, fmt.Errorf("creating archive: %w", err)
	}

	zw := zip.NewWriter(f)
	for _, name := range names {
		if err := addFile(zw, filepath.Join(dir, name), name); err != nil {
			zw.Close()
			f.Close()
			os.Remove(zipPath)
			return 0, err
		}
	}

	if err := zw.Close(); err != nil {
		f.Close()
		os.Remove(zipPath)
		return 0, fmt.Errorf("finalizing archive: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(zipPath)
		return 0, fmt.Errorf("closing archive: %w", err)
	}
	return len(names), nil
}

func addFile(zw *zip.Writer, path, name string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer src.Close()

	dst, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("adding %s to archive: %w", name, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("writing %s to archive: %w", name, err)
	}
	return nil
}
