// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package strategy

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/pdiddy/paperhound/internal/fetch"
)

// crossrefAPIBase is the CrossRef works endpoint.
const crossrefAPIBase = "https://api.crossref.org/works/"

// CrossRef resolves a DOI through the CrossRef metadata API: direct PDF
// links first, then known publisher URL rewrites, then a crawl of the
// linked landing pages for PDF anchors.
type CrossRef struct {
	downloader

	// BaseURL is the works endpoint; tests point it at a local server.
	BaseURL string
}

// NewCrossRef builds the CrossRef strategy writing into dir.
func NewCrossRef(client *fetch.Client, dir string, log zerolog.Logger) *CrossRef {
	return &CrossRef{
		downloader: downloader{client: client, dir: dir, log: log.With().Str("strategy", "crossref").Logger()},
		BaseURL:    crossrefAPIBase,
	}
}

// Name implements Strategy.
func (s *CrossRef) Name() string { return "crossref" }

// CrossRef API JSON structures.
type crossrefResponse struct {
	Message crossrefMessage `json:"message"`
}

type crossrefMessage struct {
	Link []crossrefLink `json:"link"`
}

type crossrefLink struct {
	URL                 string `json:"URL"`
	ContentType         string `json:"content-type"`
	IntendedApplication string `json:"intended-application"`
}

// TryDownload implements Strategy.
func (s *CrossRef) TryDownload(ctx context.Context, doi string) (string, error) {
	resp, err := s.client.Page(ctx, s.BaseURL+doi)
	if err != nil {
		s.log.Warn().Str("doi", doi).Err(err).Msg("api request failed")
		return "", nil
	}
	if !resp.OK() {
		s.log.Warn().Str("doi", doi).Int("status", resp.StatusCode).Msg("api request rejected")
		return "", nil
	}

	var cr crossrefResponse
	if err := json.Unmarshal(resp.Body, &cr); err != nil {
		s.log.Warn().Str("doi", doi).Err(err).Msg("unparseable api response")
		return "", nil
	}
	links := cr.Message.Link

	// 1) Links declared as PDF, or whose URL already ends in .pdf.
	for _, link := range links {
		if link.URL == "" {
			continue
		}
		if link.ContentType == "application/pdf" || strings.HasSuffix(strings.ToLower(link.URL), ".pdf") {
			if path, err := s.fetchPDF(ctx, doi, link.URL); err != nil || path != "" {
				return path, err
			}
		}
	}

	// 2) Known publisher rewrites. MDPI serves the fulltext HTML under
	// /htm and the PDF under /pdf on the same path.
	for _, link := range links {
		if strings.Contains(link.URL, "mdpi.com") && strings.Contains(link.URL, "/htm") {
			pdfURL := strings.ReplaceAll(link.URL, "/htm", "/pdf")
			if path, err := s.fetchPDF(ctx, doi, pdfURL); err != nil || path != "" {
				return path, err
			}
		}
	}

	// 3) Crawl the remaining landing pages for PDF anchors, pages meant
	// for reading or text mining first.
	for _, link := range crawlOrder(links) {
		if path, err := s.crawlPage(ctx, doi, link.URL); err != nil || path != "" {
			return path, err
		}
	}

	s.log.Info().Str("doi", doi).Msg("no downloadable pdf link")
	return "", nil
}

// crawlOrder returns the links worth crawling as HTML pages: HTML and
// text-mining links first, every other linked page after, direct .pdf
// URLs excluded (pass 1 already tried them).
func crawlOrder(links []crossrefLink) []crossrefLink {
	var ordered []crossrefLink
	preferred := func(l crossrefLink) bool {
		return l.ContentType == "text/html" || l.IntendedApplication == "text-mining"
	}
	for _, l := range links {
		if l.URL != "" && preferred(l) {
			ordered = append(ordered, l)
		}
	}
	for _, l := range links {
		if l.URL != "" && !preferred(l) {
			ordered = append(ordered, l)
		}
	}

	n := 0
	for _, l := range ordered {
		if !strings.HasSuffix(strings.ToLower(l.URL), ".pdf") {
			ordered[n] = l
			n++
		}
	}
	return ordered[:n]
}

// crawlPage fetches one landing page and tries the first anchor whose
// href ends in .pdf, resolved against the page URL.
func (s *CrossRef) crawlPage(ctx context.Context, doi, pageURL string) (string, error) {
	page, err := s.client.Page(ctx, pageURL)
	if err != nil || !page.OK() {
		return "", nil
	}

	dom, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return "", nil
	}

	var candidates []string
	dom.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if strings.HasSuffix(strings.ToLower(href), ".pdf") {
			candidates = append(candidates, resolveURL(page.FinalURL, href))
		}
	})

	for _, u := range candidates {
		if path, err := s.fetchPDF(ctx, doi, u); err != nil || path != "" {
			return path, err
		}
	}
	return "", nil
}

var _ Strategy = (*CrossRef)(nil)
