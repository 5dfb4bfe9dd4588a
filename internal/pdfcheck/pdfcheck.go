// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfcheck inspects downloaded files to confirm they are readable
// PDFs and, where possible, that they belong to the expected DOI.
package pdfcheck

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

var doiPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

// Report describes the outcome of verifying a single file.
type Report struct {
	Path  string
	Pages int
	DOI   string // first DOI found in the leading pages, if any
}

// Verify opens the file as a PDF, counts its pages and scans the first few
// pages for a DOI. A file the library cannot parse yields an error.
func Verify(path string) (Report, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return Report{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	rep := Report{Path: path, Pages: r.NumPage()}
	if rep.Pages == 0 {
		return rep, fmt.Errorf("%s has no pages", path)
	}

	maxPages := 3
	if rep.Pages < maxPages {
		maxPages = rep.Pages
	}
	for i := 1; i <= maxPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if doi := findDOI(text); doi != "" {
			rep.DOI = doi
			break
		}
	}
	return rep, nil
}

// MatchesDOI reports whether the DOI found inside the PDF agrees with the
// expected one. An empty found DOI counts as a match: many publishers omit
// the DOI from the article text.
func (r Report) MatchesDOI(expected string) bool {
	if r.DOI == "" {
		return true
	}
	return strings.EqualFold(strings.TrimRight(r.DOI, "."), strings.TrimRight(expected, "."))
}

func findDOI(text string) string {
	match := doiPattern.FindString(text)
	if match == "" {
		return ""
	}
	// Trailing punctuation is usually sentence context, not part of the DOI.
	return strings.TrimRight(match, ".,;)")
}
