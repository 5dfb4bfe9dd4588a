// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package meta fetches bibliographic metadata for downloaded papers and
// writes YAML sidecar files next to the PDFs.
package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperhound/internal/fetch"
	"github.com/pdiddy/paperhound/pkg/types"
)

// crossrefAPIBase is the CrossRef works endpoint.
const crossrefAPIBase = "https://api.crossref.org/works/"

// Fetcher retrieves bibliographic metadata by DOI.
type Fetcher struct {
	client *fetch.Client
	log    zerolog.Logger

	// BaseURL is the works endpoint; tests point it at a local server.
	BaseURL string
}

// NewFetcher builds a metadata Fetcher.
func NewFetcher(client *fetch.Client, log zerolog.Logger) *Fetcher {
	return &Fetcher{client: client, log: log, BaseURL: crossrefAPIBase}
}

// CrossRef API JSON structures.
type crossrefResponse struct {
	Message crossrefWork `json:"message"`
}

type crossrefWork struct {
	Title    []string         `json:"title"`
	Abstract string           `json:"abstract"`
	Author   []crossrefAuthor `json:"author"`
	Created  crossrefDate     `json:"created"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}

// Fetch queries the metadata API for doi and returns a Paper record.
func (f *Fetcher) Fetch(ctx context.Context, doi string) (*types.Paper, error) {
	resp, err := f.client.Page(ctx, f.BaseURL+doi)
	if err != nil {
		return nil, fmt.Errorf("metadata request: %w", err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("metadata API returned HTTP %d", resp.StatusCode)
	}

	var cr crossrefResponse
	if err := json.Unmarshal(resp.Body, &cr); err != nil {
		return nil, fmt.Errorf("parsing metadata response: %w", err)
	}

	p := &types.Paper{DOI: doi, Abstract: cr.Message.Abstract}
	if len(cr.Message.Title) > 0 {
		p.Title = cr.Message.Title[0]
	}
	for _, a := range cr.Message.Author {
		p.Authors = append(p.Authors, strings.TrimSpace(a.Given+" "+a.Family))
	}
	if len(cr.Message.Created.DateParts) > 0 && len(cr.Message.Created.DateParts[0]) >= 3 {
		parts := cr.Message.Created.DateParts[0]
		p.Date = time.Date(parts[0], time.Month(parts[1]), parts[2], 0, 0, 0, 0, time.UTC)
	}
	return p, nil
}

// WriteSidecar writes paper as YAML next to its PDF: the .pdf suffix is
// replaced with .yaml. Returns the sidecar path.
func WriteSidecar(paper *types.Paper) (string, error) {
	if paper.PDFPath == "" {
		return "", fmt.Errorf("paper has no pdf path")
	}
	path := strings.TrimSuffix(paper.PDFPath, ".pdf") + ".yaml"

	data, err := yaml.Marshal(paper)
	if err != nil {
		return "", fmt.Errorf("marshaling metadata: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing metadata: %w", err)
	}
	return path, nil
}
