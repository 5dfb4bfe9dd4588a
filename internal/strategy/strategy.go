// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package strategy implements the acquisition strategies that turn a DOI
// into a stored PDF. Each strategy consults one external source; the
// manager tries them in order until one produces a file.
package strategy

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paperhound/internal/doi"
	"github.com/pdiddy/paperhound/internal/fetch"
)

// minPDFSize is the smallest body accepted as a PDF when the magic bytes
// are absent. Mirror error pages and interstitials are well under this.
const minPDFSize = 10 * 1024

// pdfMagic is the PDF file header.
var pdfMagic = []byte("%PDF")

// Strategy is one way of acquiring a PDF for a DOI.
//
// TryDownload returns the stored path on success and ("", nil) when the
// source simply has no PDF for the DOI. Errors are reserved for failures
// worth logging; the manager treats them the same as a miss, so a
// strategy must never abort a batch.
type Strategy interface {
	Name() string
	TryDownload(ctx context.Context, doi string) (string, error)
}

// downloader carries the state shared by every strategy: the HTTP client,
// the target directory, and a logger.
type downloader struct {
	client *fetch.Client
	dir    string
	log    zerolog.Logger
}

// looksLikePDF applies the acceptance check: PDF magic bytes, or a body
// too large to plausibly be an error page.
func looksLikePDF(body []byte) bool {
	return bytes.HasPrefix(body, pdfMagic) || len(body) >= minPDFSize
}

// fetchPDF downloads url, validates the body, and persists it under the
// sanitized DOI name. A failed or invalid download is a miss, not an
// error: the caller moves on to its next candidate URL.
func (d *downloader) fetchPDF(ctx context.Context, rawDOI, url string) (string, error) {
	resp, err := d.client.Download(ctx, url)
	if err != nil {
		d.log.Warn().Str("url", url).Err(err).Msg("pdf download failed")
		return "", nil
	}
	if !resp.OK() {
		d.log.Warn().Str("url", url).Int("status", resp.StatusCode).Msg("pdf download rejected")
		return "", nil
	}
	if !looksLikePDF(resp.Body) {
		d.log.Warn().Str("url", url).Int("bytes", len(resp.Body)).Msg("response does not look like a pdf")
		return "", nil
	}
	return d.savePDF(rawDOI, resp.Body)
}

// savePDF writes content to dir/{sanitized-doi}.pdf via a temp file so a
// failed write never leaves a partial PDF behind.
func (d *downloader) savePDF(rawDOI string, content []byte) (string, error) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating download directory: %w", err)
	}
	dest := filepath.Join(d.dir, doi.Filename(rawDOI)+".pdf")

	tmp, err := os.CreateTemp(d.dir, ".paperhound-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(content)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing pdf: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming temp file: %w", err)
	}
	return dest, nil
}
