// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package strategy

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paperhound/internal/fetch"
)

// unpaywallAPIBase is the Unpaywall v2 endpoint.
const unpaywallAPIBase = "https://api.unpaywall.org/v2/"

// Unpaywall resolves a DOI through the Unpaywall open-access index and
// follows the best open-access location's direct PDF URL.
type Unpaywall struct {
	downloader

	// BaseURL is the v2 endpoint; tests point it at a local server.
	BaseURL string

	// Contact supplies the email parameter the API requires.
	Contact *ContactEmail
}

// NewUnpaywall builds the Unpaywall strategy writing into dir. contact
// may be shared with the manager so it rotates across a batch.
func NewUnpaywall(client *fetch.Client, dir string, contact *ContactEmail, log zerolog.Logger) *Unpaywall {
	if contact == nil {
		contact = NewContactEmail("", 0)
	}
	return &Unpaywall{
		downloader: downloader{client: client, dir: dir, log: log.With().Str("strategy", "unpaywall").Logger()},
		BaseURL:    unpaywallAPIBase,
		Contact:    contact,
	}
}

// Name implements Strategy.
func (s *Unpaywall) Name() string { return "unpaywall" }

// Unpaywall API JSON structures.
type unpaywallResponse struct {
	BestOALocation *unpaywallLocation `json:"best_oa_location"`
}

type unpaywallLocation struct {
	URLForPDF string `json:"url_for_pdf"`
}

// TryDownload implements Strategy.
func (s *Unpaywall) TryDownload(ctx context.Context, doi string) (string, error) {
	apiURL := s.BaseURL + doi + "?email=" + s.Contact.Address()

	resp, err := s.client.Page(ctx, apiURL)
	if err != nil {
		s.log.Warn().Str("doi", doi).Err(err).Msg("api request failed")
		return "", nil
	}
	if !resp.OK() {
		s.log.Warn().Str("doi", doi).Int("status", resp.StatusCode).Msg("api request rejected")
		return "", nil
	}

	var ua unpaywallResponse
	if err := json.Unmarshal(resp.Body, &ua); err != nil {
		s.log.Warn().Str("doi", doi).Err(err).Msg("unparseable api response")
		return "", nil
	}

	if ua.BestOALocation == nil || ua.BestOALocation.URLForPDF == "" {
		s.log.Info().Str("doi", doi).Msg("no open-access pdf location")
		return "", nil
	}

	return s.fetchPDF(ctx, doi, ua.BestOALocation.URLForPDF)
}

var _ Strategy = (*Unpaywall)(nil)
