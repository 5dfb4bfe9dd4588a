// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paperhound pipeline.
package types

import "time"

// Outcome records the result of one download attempt for one DOI.
// Outcomes are append-only: the manager writes each exactly once and
// never mutates it afterward.
type Outcome struct {
	// DOI is the canonical identifier the attempt was keyed by.
	DOI string `json:"doi" yaml:"doi"`

	// Success reports whether any strategy produced a stored PDF.
	Success bool `json:"success" yaml:"success"`

	// Strategy names the strategy that succeeded; empty on failure.
	Strategy string `json:"strategy,omitempty" yaml:"strategy,omitempty"`

	// Path is the stored PDF location; empty on failure.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// Paper holds bibliographic metadata for a downloaded PDF, written as a
// YAML sidecar next to the file.
type Paper struct {
	// DOI is the canonical identifier.
	DOI string `json:"doi" yaml:"doi"`

	// Title is the work title as returned by the metadata API.
	Title string `json:"title" yaml:"title"`

	// Authors lists the authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Date is the publication date.
	Date time.Time `json:"date" yaml:"date"`

	// Abstract is the work abstract, when the metadata API provides one.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// PDFPath is the local filesystem path of the downloaded PDF.
	PDFPath string `json:"pdf_path" yaml:"pdf_path"`

	// Source names the strategy that produced the PDF.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}
