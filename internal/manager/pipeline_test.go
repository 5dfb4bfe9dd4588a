// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package manager

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperhound/internal/fetch"
	"github.com/pdiddy/paperhound/internal/strategy"
	"github.com/pdiddy/paperhound/pkg/types"
)

func pipelineClient() *fetch.Client {
	return fetch.New(types.HTTPConfig{
		MetadataTimeout: 5 * time.Second,
		DownloadTimeout: 5 * time.Second,
		UserAgent:       "paperhound-test/1.0",
	}, zerolog.Nop())
}

// fakePDF passes the magic-byte check.
var fakePDF = append([]byte("%PDF-1.5\n"), make([]byte, 64)...)

// fullPipeline wires the three real strategies against one test server.
func fullPipeline(t *testing.T, ts *httptest.Server) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	client := pipelineClient()
	log := zerolog.Nop()
	contact := strategy.NewContactEmail("pipeline@example.org", 0)

	crossref := strategy.NewCrossRef(client, dir, log)
	crossref.BaseURL = ts.URL + "/works/"
	unpaywall := strategy.NewUnpaywall(client, dir, contact, log)
	unpaywall.BaseURL = ts.URL + "/v2/"
	scihub := strategy.NewSciHub(client, dir, []string{ts.URL + "/mirror/"}, log)

	m := New(
		[]strategy.Strategy{crossref, unpaywall, scihub},
		dir,
		log,
		WithContactEmail(contact),
	)
	return m, dir
}

func TestPipeline_CrossRefDirectLinkWins(t *testing.T) {
	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	defer ts.Close()

	mux.HandleFunc("/works/10.1234/example", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"message":{"link":[{"URL":"%s/p.pdf","content-type":"application/pdf"}]}}`, ts.URL)
	})
	mux.HandleFunc("/p.pdf", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(fakePDF)
	})
	// Later strategies must never be consulted.
	mux.HandleFunc("/v2/", func(w http.ResponseWriter, _ *http.Request) {
		t.Error("unpaywall was queried after a crossref success")
	})
	mux.HandleFunc("/mirror/", func(w http.ResponseWriter, _ *http.Request) {
		t.Error("mirror was queried after a crossref success")
	})

	m, dir := fullPipeline(t, ts)
	o := m.Download(context.Background(), "10.1234/example")

	assert.Equal(t, types.Outcome{
		DOI:      "10.1234/example",
		Success:  true,
		Strategy: "crossref",
		Path:     filepath.Join(dir, "10.1234_example.pdf"),
	}, o)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "10.1234_example.pdf", entries[0].Name())
}

func TestPipeline_EverySourceMisses(t *testing.T) {
	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	defer ts.Close()

	mux.HandleFunc("/works/", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
	mux.HandleFunc("/v2/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"doi":"10.1234/example"}`)
	})
	mux.HandleFunc("/mirror/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body>article not found</body></html>`)
	})

	m, dir := fullPipeline(t, ts)
	o := m.Download(context.Background(), "10.1234/example")

	assert.Equal(t, types.Outcome{DOI: "10.1234/example", Success: false}, o)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "a fully failed DOI must leave no files")
}

func TestPipeline_FallsThroughToMirror(t *testing.T) {
	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	defer ts.Close()

	mux.HandleFunc("/works/", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
	mux.HandleFunc("/v2/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{}`)
	})
	mux.HandleFunc("/mirror/10.1234/example", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><embed id="pdf" src="/files/p.pdf"></body></html>`)
	})
	mux.HandleFunc("/files/p.pdf", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(fakePDF)
	})

	m, _ := fullPipeline(t, ts)
	o := m.Download(context.Background(), "10.1234/example")

	assert.True(t, o.Success)
	assert.Equal(t, "scihub", o.Strategy)
	assert.FileExists(t, o.Path)
}
