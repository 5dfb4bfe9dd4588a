// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package strategy

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUnpaywall(t *testing.T, ts *httptest.Server, contact *ContactEmail) *Unpaywall {
	t.Helper()
	s := NewUnpaywall(newTestClient(), t.TempDir(), contact, zerolog.Nop())
	s.BaseURL = ts.URL + "/v2/"
	return s
}

func TestUnpaywall_DownloadsBestOALocation(t *testing.T) {
	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	defer ts.Close()

	var gotEmail string
	mux.HandleFunc("/v2/10.1234/example", func(w http.ResponseWriter, r *http.Request) {
		gotEmail = r.URL.Query().Get("email")
		fmt.Fprintf(w, `{"best_oa_location":{"url_for_pdf":"%s/oa.pdf"}}`, ts.URL)
	})
	mux.HandleFunc("/oa.pdf", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(fakePDF())
	})

	s := newTestUnpaywall(t, ts, NewContactEmail("me@example.org", 0))
	path, err := s.TryDownload(context.Background(), "10.1234/example")
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, "me@example.org", gotEmail)
}

func TestUnpaywall_GeneratedEmailWhenUnset(t *testing.T) {
	var gotEmail string
	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	defer ts.Close()
	mux.HandleFunc("/v2/10.1234/example", func(w http.ResponseWriter, r *http.Request) {
		gotEmail = r.URL.Query().Get("email")
		fmt.Fprint(w, `{}`)
	})

	s := newTestUnpaywall(t, ts, nil)
	_, err := s.TryDownload(context.Background(), "10.1234/example")
	require.NoError(t, err)
	assert.Regexp(t, emailPattern, gotEmail)
}

func TestUnpaywall_NoLocationIsMiss(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"null location", `{"best_oa_location":null}`},
		{"absent location", `{"doi":"10.1234/example"}`},
		{"empty pdf url", `{"best_oa_location":{"url_for_pdf":""}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, tt.body)
			}))
			defer ts.Close()

			s := newTestUnpaywall(t, ts, NewContactEmail("me@example.org", 0))
			path, err := s.TryDownload(context.Background(), "10.1234/example")
			require.NoError(t, err)
			assert.Empty(t, path)

			entries, err := os.ReadDir(s.dir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestUnpaywall_APIErrorIsMiss(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	s := newTestUnpaywall(t, ts, NewContactEmail("me@example.org", 0))
	path, err := s.TryDownload(context.Background(), "10.1234/example")
	require.NoError(t, err)
	assert.Empty(t, path)
}
