// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package manager drives the download pipeline: it tries each acquisition
// strategy in order for every DOI, stops at the first success, and keeps
// an append-only ledger of outcomes.
package manager

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paperhound/internal/doi"
	"github.com/pdiddy/paperhound/internal/strategy"
	"github.com/pdiddy/paperhound/pkg/types"
)

// SummaryFile is the name of the CSV summary written by SaveResults.
const SummaryFile = "download_summary.csv"

// Recorder persists outcomes somewhere durable as they happen. The
// manager treats recording failures as log-and-continue: a broken
// history store must not fail a download run.
type Recorder interface {
	Record(outcome types.Outcome) error
}

// Manager owns an ordered strategy list and the ledger for one run.
// It is not safe for concurrent use; DOIs are processed strictly
// sequentially by design.
type Manager struct {
	strategies   []strategy.Strategy
	dir          string
	contact      *strategy.ContactEmail
	recorder     Recorder
	skipExisting bool
	log          zerolog.Logger
	results      []types.Outcome
}

// Option configures a Manager.
type Option func(*Manager)

// WithRecorder attaches a durable outcome recorder.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// WithContactEmail shares the contact-email rotator with the manager so
// it advances once per processed DOI.
func WithContactEmail(c *strategy.ContactEmail) Option {
	return func(m *Manager) { m.contact = c }
}

// WithSkipExisting records an immediate success for a DOI whose PDF is
// already present in the download directory instead of re-fetching it.
func WithSkipExisting() Option {
	return func(m *Manager) { m.skipExisting = true }
}

// New builds a Manager. dir is where SaveResults writes the summary CSV;
// strategies are tried in the given order.
func New(strategies []strategy.Strategy, dir string, log zerolog.Logger, opts ...Option) *Manager {
	m := &Manager{
		strategies: strategies,
		dir:        dir,
		log:        log,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Download processes one DOI: strategies are tried in order until one
// stores a PDF. Exactly one outcome is appended to the ledger, whatever
// happens; no error escapes to the caller.
func (m *Manager) Download(ctx context.Context, rawDOI string) types.Outcome {
	canonical := doi.Extract(rawDOI)
	m.log.Info().Str("doi", canonical).Msg("starting download")

	outcome := types.Outcome{DOI: canonical}
	if m.skipExisting {
		existing := filepath.Join(m.dir, doi.Filename(canonical)+".pdf")
		if info, err := os.Stat(existing); err == nil && info.Size() > 0 {
			m.log.Info().Str("doi", canonical).Str("path", existing).Msg("already downloaded, skipping")
			outcome.Success = true
			outcome.Strategy = "existing"
			outcome.Path = existing
			return m.finish(outcome)
		}
	}

	for _, s := range m.strategies {
		path, err := m.attempt(ctx, s, canonical)
		if err != nil {
			m.log.Error().Str("doi", canonical).Str("strategy", s.Name()).Err(err).Msg("strategy failed")
			continue
		}
		if path != "" {
			m.log.Info().Str("doi", canonical).Str("strategy", s.Name()).Str("path", path).Msg("download succeeded")
			outcome.Success = true
			outcome.Strategy = s.Name()
			outcome.Path = path
			break
		}
		m.log.Warn().Str("doi", canonical).Str("strategy", s.Name()).Msg("strategy found no pdf")
	}
	if !outcome.Success {
		m.log.Error().Str("doi", canonical).Msg("no pdf found after all strategies")
	}
	return m.finish(outcome)
}

// finish appends the outcome to the ledger, records it durably when a
// recorder is attached, and counts the DOI toward email rotation.
func (m *Manager) finish(outcome types.Outcome) types.Outcome {
	m.results = append(m.results, outcome)
	if m.recorder != nil {
		if err := m.recorder.Record(outcome); err != nil {
			m.log.Warn().Err(err).Msg("recording outcome failed")
		}
	}
	if m.contact != nil {
		m.contact.Advance()
	}
	return outcome
}

// DownloadBatch processes DOIs strictly in input order. Outcomes are
// returned in the same order. Cancellation is checked between DOIs only;
// an in-flight fetch is never interrupted mid-DOI by the batch loop.
func (m *Manager) DownloadBatch(ctx context.Context, dois []string) []types.Outcome {
	outcomes := make([]types.Outcome, 0, len(dois))
	for _, d := range dois {
		if ctx.Err() != nil {
			m.log.Warn().Int("remaining", len(dois)-len(outcomes)).Msg("batch cancelled")
			break
		}
		outcomes = append(outcomes, m.Download(ctx, d))
	}
	return outcomes
}

// attempt invokes one strategy with panic isolation: a defect inside a
// strategy is reported as an error for this DOI, never lets the batch die.
func (m *Manager) attempt(ctx context.Context, s strategy.Strategy, canonical string) (path string, err error) {
	defer func() {
		if r := recover(); r != nil {
			path = ""
			err = fmt.Errorf("strategy %s panicked: %v", s.Name(), r)
		}
	}()
	return s.TryDownload(ctx, canonical)
}

// Results returns a snapshot of the ledger.
func (m *Manager) Results() []types.Outcome {
	out := make([]types.Outcome, len(m.results))
	copy(out, m.results)
	return out
}

// Summary tallies the ledger.
func (m *Manager) Summary() (succeeded, failed int) {
	for _, o := range m.results {
		if o.Success {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}

// SaveResults writes the ledger as download_summary.csv in the manager's
// directory. The ledger itself is never cleared.
func (m *Manager) SaveResults() error {
	if len(m.results) == 0 {
		m.log.Warn().Msg("no results to save")
		return nil
	}
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("creating results directory: %w", err)
	}

	path := filepath.Join(m.dir, SummaryFile)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", SummaryFile, err)
	}

	w := csv.NewWriter(f)
	records := [][]string{{"doi", "success"}}
	for _, o := range m.results {
		records = append(records, []string{o.DOI, strconv.FormatBool(o.Success)})
	}
	writeErr := w.WriteAll(records)
	closeErr := f.Close()
	if writeErr != nil {
		return fmt.Errorf("writing %s: %w", SummaryFile, writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("closing %s: %w", SummaryFile, closeErr)
	}

	m.log.Info().Str("path", path).Int("outcomes", len(m.results)).Msg("summary saved")
	return nil
}
