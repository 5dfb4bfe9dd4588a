// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package doi canonicalizes Digital Object Identifiers and derives
// filesystem-safe names from them.
package doi

import (
	"regexp"
	"strings"
)

// pattern matches a DOI embedded anywhere in a string: "10.1038/nature12373",
// "https://doi.org/10.1038/nature12373", "doi:10.1038/NATURE12373".
var pattern = regexp.MustCompile(`(?i)10\.\d{4,9}/[-._;()/:a-z0-9]+`)

// Extract returns the first DOI found in raw, case preserved. When raw
// contains no DOI the trimmed input is returned as-is, so callers always
// get something usable as a key.
func Extract(raw string) string {
	raw = strings.TrimSpace(raw)
	if m := pattern.FindString(raw); m != "" {
		return m
	}
	return raw
}

// filenameReplacer maps the two DOI characters that are unsafe in filenames.
var filenameReplacer = strings.NewReplacer("/", "_", ":", "_")

// Filename returns a filesystem-safe stem for raw: the extracted DOI with
// "/" and ":" replaced by "_". Total and deterministic; applying it to an
// already-sanitized token is a no-op.
func Filename(raw string) string {
	return filenameReplacer.Replace(Extract(raw))
}
