// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by every outbound request.
type HTTPConfig struct {
	// MetadataTimeout is the timeout for metadata and listing requests
	// (API lookups, landing pages, mirror pages). Default 15s.
	MetadataTimeout time.Duration `json:"metadata_timeout" yaml:"metadata_timeout"`

	// DownloadTimeout is the timeout for binary PDF downloads. Default 30s.
	DownloadTimeout time.Duration `json:"download_timeout" yaml:"download_timeout"`

	// UserAgent is the User-Agent header sent with every request. Defaults
	// to a browser-like string; some publishers refuse obvious bots.
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// RequestsPerSecond caps the outbound request rate across all hosts.
	// Zero disables rate limiting.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
}

// DownloadConfig holds settings for the download pipeline.
type DownloadConfig struct {
	HTTPConfig `yaml:",inline"`

	// Dir is the directory PDFs and the summary CSV are written to.
	Dir string `json:"dir" yaml:"dir"`

	// Mirrors is the ordered set of mirror base URLs tried by the mirror
	// strategy. The trailing slash matters: the DOI is appended directly.
	Mirrors []string `json:"mirrors" yaml:"mirrors"`

	// ContactEmail is sent to the open-access API as required by its usage
	// policy. When empty a random address is generated and rotated every
	// RotateEvery DOIs.
	ContactEmail string `json:"contact_email,omitempty" yaml:"contact_email,omitempty"`

	// RotateEvery is the number of DOIs processed before a generated
	// contact email is replaced (default 50).
	RotateEvery int `json:"rotate_every" yaml:"rotate_every"`

	// HistoryDB is the path of the SQLite download-history database.
	// Empty disables history recording.
	HistoryDB string `json:"history_db,omitempty" yaml:"history_db,omitempty"`

	// WriteMetadata controls whether a YAML metadata sidecar is written
	// next to each downloaded PDF.
	WriteMetadata bool `json:"write_metadata" yaml:"write_metadata"`
}

// Defaults fills zero-valued fields with their documented defaults.
func (c *DownloadConfig) Defaults() {
	if c.MetadataTimeout == 0 {
		c.MetadataTimeout = 15 * time.Second
	}
	if c.DownloadTimeout == 0 {
		c.DownloadTimeout = 30 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Dir == "" {
		c.Dir = "downloads"
	}
	if len(c.Mirrors) == 0 {
		c.Mirrors = append(c.Mirrors, DefaultMirrors...)
	}
	if c.RotateEvery <= 0 {
		c.RotateEvery = 50
	}
}

// DefaultUserAgent is a browser-like User-Agent string. Mirror hosts serve
// a captcha page to anything that identifies itself as a script.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// DefaultMirrors is the stock mirror list used when the config names none.
var DefaultMirrors = []string{
	"https://sci-hub.se/",
	"https://sci-hub.st/",
	"https://sci-hub.red/",
	"https://sci-hub.ru/",
}
