// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package strategy

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pageFrom(t *testing.T, html string) *mirrorPage {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return &mirrorPage{doc: doc, raw: html}
}

func TestExtractPDFURL_Heuristics(t *testing.T) {
	tests := []struct {
		name          string
		html          string
		wantURL       string
		wantHeuristic string
	}{
		{
			"embed with pdf id",
			`<embed id="pdf" src="//mirror.example/file.pdf#navpanes=0">`,
			"//mirror.example/file.pdf#navpanes=0",
			"embed-id",
		},
		{
			"embed without id",
			`<embed type="application/pdf" src="/local/file.pdf">`,
			"/local/file.pdf",
			"embed-src",
		},
		{
			"iframe",
			`<iframe src="https://x.test/doc.pdf"></iframe>`,
			"https://x.test/doc.pdf",
			"iframe-src",
		},
		{
			"onclick handler single quotes",
			`<button onclick="location.href='//dl.x.test/p.pdf?download=true'">save</button>`,
			"//dl.x.test/p.pdf?download=true",
			"onclick",
		},
		{
			"onclick handler double quotes",
			`<a onclick='location.href = "https://dl.x.test/p.pdf"'>save</a>`,
			"https://dl.x.test/p.pdf",
			"onclick",
		},
		{
			"anchor on known host",
			`<a href="https://sci-hub.se/downloads/p.pdf">download</a>`,
			"https://sci-hub.se/downloads/p.pdf",
			"anchor-host",
		},
		{
			"generic src attribute",
			`<object data="x" src="/store/p.pdf"></object>`,
			"/store/p.pdf",
			"any-src",
		},
		{
			"raw text scan",
			`<script>var u = "https://cdn.x.test/files/p.pdf";</script>`,
			"https://cdn.x.test/files/p.pdf",
			"raw-scan",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, heuristic, ok := extractPDFURL(pageFrom(t, tt.html))
			require.True(t, ok)
			assert.Equal(t, tt.wantURL, url)
			assert.Equal(t, tt.wantHeuristic, heuristic)
		})
	}
}

func TestExtractPDFURL_PriorityOrder(t *testing.T) {
	// Both an embed and an iframe are present: the embed wins.
	html := `<iframe src="/frame.pdf"></iframe><embed id="pdf" src="/embed.pdf">`
	url, heuristic, ok := extractPDFURL(pageFrom(t, html))
	require.True(t, ok)
	assert.Equal(t, "/embed.pdf", url)
	assert.Equal(t, "embed-id", heuristic)
}

func TestExtractPDFURL_NothingFound(t *testing.T) {
	_, _, ok := extractPDFURL(pageFrom(t, `<html><body><p>nothing here</p></body></html>`))
	assert.False(t, ok)
}

func TestExtractPDFURL_IgnoresNonPDFSources(t *testing.T) {
	html := `<embed src="/viewer.swf"><iframe src="/ad.html"></iframe><img src="/logo.png">`
	_, _, ok := extractPDFURL(pageFrom(t, html))
	assert.False(t, ok)
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		ref  string
		want string
	}{
		{"protocol relative", "https://sci-hub.se/10.1/x", "//dl.sci-hub.se/p.pdf", "https://dl.sci-hub.se/p.pdf"},
		{"absolute https", "https://sci-hub.se/10.1/x", "https://other.test/p.pdf", "https://other.test/p.pdf"},
		{"absolute http", "https://sci-hub.se/10.1/x", "http://other.test/p.pdf", "http://other.test/p.pdf"},
		{"root relative", "https://sci-hub.se/10.1/x", "/downloads/p.pdf", "https://sci-hub.se/downloads/p.pdf"},
		{"document relative", "https://sci-hub.se/papers/view", "p.pdf", "https://sci-hub.se/papers/p.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveURL(tt.base, tt.ref))
		})
	}
}

func TestIsNotFoundPage(t *testing.T) {
	assert.True(t, isNotFoundPage(`<html>Article Not Found</html>`))
	assert.True(t, isNotFoundPage(`<html>статья не найдена</html>`))
	assert.False(t, isNotFoundPage(`<html><embed id="pdf" src="/p.pdf"></html>`))
}
