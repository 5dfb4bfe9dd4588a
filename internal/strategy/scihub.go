// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package strategy

import (
	"bytes"
	"context"
	"math/rand/v2"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/pdiddy/paperhound/internal/fetch"
)

// SciHub retrieves PDFs through a set of mirror hosts. Mirrors are tried
// in random order; each mirror page is scraped for the embedded PDF
// reference with a prioritized list of heuristics.
type SciHub struct {
	downloader

	// Mirrors are base URLs the DOI is appended to.
	Mirrors []string

	// shuffle permutes the mirror order per attempt; tests replace it
	// with the identity to get deterministic mirror order.
	shuffle func([]string)
}

// NewSciHub builds the mirror strategy writing into dir.
func NewSciHub(client *fetch.Client, dir string, mirrors []string, log zerolog.Logger) *SciHub {
	return &SciHub{
		downloader: downloader{client: client, dir: dir, log: log.With().Str("strategy", "scihub").Logger()},
		Mirrors:    mirrors,
		shuffle: func(m []string) {
			rand.Shuffle(len(m), func(i, j int) { m[i], m[j] = m[j], m[i] })
		},
	}
}

// Name implements Strategy.
func (s *SciHub) Name() string { return "scihub" }

// TryDownload implements Strategy.
func (s *SciHub) TryDownload(ctx context.Context, doi string) (string, error) {
	mirrors := make([]string, len(s.Mirrors))
	copy(mirrors, s.Mirrors)
	s.shuffle(mirrors)

	for _, mirror := range mirrors {
		for _, enc := range doiEncodings(doi) {
			path, notFound, err := s.tryMirror(ctx, mirror, doi, enc)
			if err != nil || path != "" {
				return path, err
			}
			if notFound {
				// The mirror knows the DOI and doesn't have it; no
				// encoding will change that.
				break
			}
		}
	}
	s.log.Info().Str("doi", doi).Msg("all mirrors exhausted")
	return "", nil
}

// doiEncodings returns the request-path forms tried per mirror: the DOI
// as-is, then percent-encoded. Some mirrors only resolve the exact
// encoded form.
func doiEncodings(doi string) []string {
	escaped := url.PathEscape(doi)
	if escaped == doi {
		return []string{doi}
	}
	return []string{doi, escaped}
}

// tryMirror fetches one mirror page and follows the PDF reference it
// finds, if any. A miss at any step returns ("", false, nil) so the
// caller moves to the next encoding or mirror; notFound is set when the
// mirror explicitly declared the article missing, which makes retrying
// other encodings on the same mirror pointless.
func (s *SciHub) tryMirror(ctx context.Context, mirror, doi, encodedDOI string) (path string, notFound bool, err error) {
	pageURL := mirror + encodedDOI
	s.log.Info().Str("mirror", mirror).Str("doi", doi).Msg("trying mirror")

	resp, err := s.client.Page(ctx, pageURL)
	if err != nil {
		s.log.Warn().Str("mirror", mirror).Err(err).Msg("mirror request failed")
		return "", false, nil
	}
	if !resp.OK() {
		s.log.Warn().Str("mirror", mirror).Int("status", resp.StatusCode).Msg("mirror request rejected")
		return "", false, nil
	}

	// Some mirrors serve the PDF outright instead of a viewer page.
	if resp.IsPDF() && looksLikePDF(resp.Body) {
		path, err = s.savePDF(doi, resp.Body)
		return path, false, err
	}

	raw := string(resp.Body)
	if isNotFoundPage(raw) {
		s.log.Info().Str("mirror", mirror).Str("doi", doi).Msg("mirror reports article not found")
		return "", true, nil
	}

	dom, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		s.log.Warn().Str("mirror", mirror).Err(err).Msg("unparseable mirror page")
		return "", false, nil
	}

	ref, heuristic, ok := extractPDFURL(&mirrorPage{doc: dom, raw: raw})
	if !ok {
		s.log.Warn().Str("mirror", mirror).Str("doi", doi).Msg("no pdf reference on mirror page")
		return "", false, nil
	}

	pdfURL := resolveURL(resp.FinalURL, ref)
	s.log.Info().Str("url", pdfURL).Str("heuristic", heuristic).Msg("found pdf reference")
	path, err = s.fetchPDF(ctx, doi, pdfURL)
	return path, false, err
}

var _ Strategy = (*SciHub)(nil)
