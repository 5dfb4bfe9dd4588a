// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package strategy

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// crossrefBody builds a works response with the given link records.
func crossrefBody(links string) string {
	return fmt.Sprintf(`{"status":"ok","message":{"link":[%s]}}`, links)
}

func newTestCrossRef(t *testing.T, ts *httptest.Server) *CrossRef {
	t.Helper()
	s := NewCrossRef(newTestClient(), t.TempDir(), zerolog.Nop())
	s.BaseURL = ts.URL + "/works/"
	return s
}

func TestCrossRef_DirectPDFLink(t *testing.T) {
	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	defer ts.Close()

	mux.HandleFunc("/works/10.1234/example", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, crossrefBody(
			`{"URL":"`+ts.URL+`/p.pdf","content-type":"application/pdf"}`))
	})
	mux.HandleFunc("/p.pdf", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(fakePDF())
	})

	s := newTestCrossRef(t, ts)
	path, err := s.TryDownload(context.Background(), "10.1234/example")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.dir, "10.1234_example.pdf"), path)
}

func TestCrossRef_PDFSuffixWithoutContentType(t *testing.T) {
	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	defer ts.Close()

	mux.HandleFunc("/works/10.1234/example", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, crossrefBody(
			`{"URL":"`+ts.URL+`/files/paper.PDF","content-type":"unspecified"}`))
	})
	mux.HandleFunc("/files/paper.PDF", func(w http.ResponseWriter, _ *http.Request) {
		w.Write(fakePDF())
	})

	s := newTestCrossRef(t, ts)
	path, err := s.TryDownload(context.Background(), "10.1234/example")
	require.NoError(t, err)
	assert.NotEmpty(t, path)
}

func TestCrossRef_MDPIHtmRewrite(t *testing.T) {
	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	defer ts.Close()

	// The fulltext link points at the /htm page; the PDF lives on the
	// same path under /pdf and is reachable only through the rewrite.
	mux.HandleFunc("/works/10.3390/app11010100", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, crossrefBody(
			`{"URL":"`+ts.URL+`/mdpi.com/2076-3417/11/1/100/htm","content-type":"unspecified"}`))
	})
	mux.HandleFunc("/mdpi.com/2076-3417/11/1/100/htm", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html><body>fulltext, no download links</body></html>`))
	})
	var pdfHits int
	mux.HandleFunc("/mdpi.com/2076-3417/11/1/100/pdf", func(w http.ResponseWriter, _ *http.Request) {
		pdfHits++
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(fakePDF())
	})

	s := newTestCrossRef(t, ts)
	path, err := s.TryDownload(context.Background(), "10.3390/app11010100")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.dir, "10.3390_app11010100.pdf"), path)
	assert.Equal(t, 1, pdfHits, "rewritten /pdf URL must be fetched")
}

func TestCrossRef_LandingPageAnchorCrawl(t *testing.T) {
	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	defer ts.Close()

	mux.HandleFunc("/works/10.1234/example", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, crossrefBody(
			`{"URL":"`+ts.URL+`/article/landing","content-type":"text/html"}`))
	})
	mux.HandleFunc("/article/landing", func(w http.ResponseWriter, _ *http.Request) {
		// Relative href: must be resolved against the page URL.
		w.Write([]byte(`<html><body><a href="/article/full.pdf">Download</a></body></html>`))
	})
	mux.HandleFunc("/article/full.pdf", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(fakePDF())
	})

	s := newTestCrossRef(t, ts)
	path, err := s.TryDownload(context.Background(), "10.1234/example")
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestCrossRef_APIErrorIsMiss(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer ts.Close()

	s := newTestCrossRef(t, ts)
	path, err := s.TryDownload(context.Background(), "10.1234/example")
	require.NoError(t, err)
	assert.Empty(t, path)

	entries, err := os.ReadDir(s.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCrossRef_NoLinksIsMiss(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"status":"ok","message":{}}`)
	}))
	defer ts.Close()

	s := newTestCrossRef(t, ts)
	path, err := s.TryDownload(context.Background(), "10.1234/example")
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestCrawlOrder_PrefersHTMLAndTextMining(t *testing.T) {
	links := []crossrefLink{
		{URL: "https://x.test/other", ContentType: "unspecified"},
		{URL: "https://x.test/direct.pdf", ContentType: "application/pdf"},
		{URL: "https://x.test/mine", IntendedApplication: "text-mining"},
		{URL: "https://x.test/page", ContentType: "text/html"},
	}
	got := crawlOrder(links)

	require.Len(t, got, 3, "direct .pdf URLs are excluded from the crawl")
	assert.Equal(t, "https://x.test/mine", got[0].URL)
	assert.Equal(t, "https://x.test/page", got[1].URL)
	assert.Equal(t, "https://x.test/other", got[2].URL)
}
