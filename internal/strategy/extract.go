// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package strategy

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// mirrorPage is a fetched mirror response ready for extraction: the
// parsed DOM plus the raw text for regex fallbacks.
type mirrorPage struct {
	doc *goquery.Document
	raw string
}

// pdfLike reports whether a URL plausibly points at a PDF.
func pdfLike(u string) bool {
	return strings.Contains(strings.ToLower(u), ".pdf")
}

// knownMirrorHosts are substrings of hosts that mirrors serve PDFs from.
var knownMirrorHosts = []string{"sci-hub", "sci.bban"}

func onKnownMirrorHost(u string) bool {
	for _, h := range knownMirrorHosts {
		if strings.Contains(u, h) {
			return true
		}
	}
	return false
}

// onclickPattern pulls the target out of inline handlers like
// onclick="location.href='//host/file.pdf?download=true'".
var onclickPattern = regexp.MustCompile(`location\.href\s*=\s*['"]([^'"]*\.pdf[^'"]*)['"]`)

// rawPDFURLPattern finds PDF-like URLs anywhere in the page text.
var rawPDFURLPattern = regexp.MustCompile(`(?i)(?:https?:)?//[^\s"'<>]+\.pdf[^\s"'<>]*`)

// notFoundPhrases mark a mirror page that has no article; extraction is
// pointless and the next mirror is tried.
var notFoundPhrases = []string{
	"article not found",
	"статья не найдена",
	"page not found",
}

// isNotFoundPage reports whether the mirror declared the DOI unknown.
func isNotFoundPage(body string) bool {
	lower := strings.ToLower(body)
	for _, phrase := range notFoundPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// pdfExtractor is one heuristic for locating the PDF reference in a
// mirror page. Extractors are pure so each is testable in isolation.
type pdfExtractor struct {
	name string
	fn   func(p *mirrorPage) (string, bool)
}

// pdfExtractors is applied in order, first match wins. Ordered from the
// mirror's canonical markup down to blunt text scanning.
var pdfExtractors = []pdfExtractor{
	{"embed-id", func(p *mirrorPage) (string, bool) {
		return attrIfPresent(p.doc.Find("embed#pdf").First(), "src")
	}},
	{"embed-src", func(p *mirrorPage) (string, bool) {
		return firstMatchingAttr(p.doc.Find("embed[src]"), "src", pdfLike)
	}},
	{"iframe-src", func(p *mirrorPage) (string, bool) {
		return firstMatchingAttr(p.doc.Find("iframe[src]"), "src", pdfLike)
	}},
	{"onclick", func(p *mirrorPage) (string, bool) {
		var found string
		p.doc.Find("[onclick]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			onclick, _ := sel.Attr("onclick")
			if m := onclickPattern.FindStringSubmatch(onclick); m != nil {
				found = m[1]
				return false
			}
			return true
		})
		return found, found != ""
	}},
	{"anchor-host", func(p *mirrorPage) (string, bool) {
		return firstMatchingAttr(p.doc.Find("a[href]"), "href", func(u string) bool {
			return pdfLike(u) && onKnownMirrorHost(u)
		})
	}},
	{"any-src", func(p *mirrorPage) (string, bool) {
		return firstMatchingAttr(p.doc.Find("[src]"), "src", pdfLike)
	}},
	{"raw-scan", func(p *mirrorPage) (string, bool) {
		m := rawPDFURLPattern.FindString(p.raw)
		return m, m != ""
	}},
}

// extractPDFURL runs the heuristics in order and returns the first hit
// along with the name of the heuristic that produced it.
func extractPDFURL(p *mirrorPage) (string, string, bool) {
	for _, ex := range pdfExtractors {
		if u, ok := ex.fn(p); ok && u != "" {
			return u, ex.name, true
		}
	}
	return "", "", false
}

func attrIfPresent(sel *goquery.Selection, attr string) (string, bool) {
	v, ok := sel.Attr(attr)
	return v, ok && v != ""
}

func firstMatchingAttr(sel *goquery.Selection, attr string, match func(string) bool) (string, bool) {
	var found string
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr(attr)
		if v != "" && match(v) {
			found = v
			return false
		}
		return true
	})
	return found, found != ""
}

// resolveURL normalizes a reference found in a page against the page's
// final URL: protocol-relative references get https, absolute references
// pass through, everything else is joined to the base.
func resolveURL(base, ref string) string {
	if strings.HasPrefix(ref, "//") {
		return "https:" + ref
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
