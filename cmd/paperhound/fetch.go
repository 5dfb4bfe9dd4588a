// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paperhound/internal/fetch"
	"github.com/pdiddy/paperhound/internal/history"
	"github.com/pdiddy/paperhound/internal/manager"
	"github.com/pdiddy/paperhound/internal/meta"
	"github.com/pdiddy/paperhound/internal/strategy"
	"github.com/pdiddy/paperhound/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [DOIs...]",
	Short: "Download PDFs for one or more DOIs",
	Long: `Fetch resolves each DOI to a PDF by trying CrossRef publisher links,
open-access copies via Unpaywall, and Sci-Hub mirrors, in that order. DOIs may
be given as arguments or read from a file with --input (one per line, blank
lines and # comments ignored). Bare DOIs and doi.org URLs both work.

A download_summary.csv is written in the download directory at the end of
the run.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("input", "", "file of DOIs, one per line")
	fetchCmd.Flags().String("dir", "", "download directory (default downloads)")
	fetchCmd.Flags().StringSlice("mirror", nil, "mirror base URL (repeatable, overrides defaults)")
	fetchCmd.Flags().String("email", "", "contact email for the Unpaywall API (default: generated)")
	fetchCmd.Flags().Duration("timeout", 0, "metadata request timeout (default 15s)")
	fetchCmd.Flags().Duration("download-timeout", 0, "PDF download timeout (default 30s)")
	fetchCmd.Flags().Float64("rate", 0, "max outbound requests per second (0 = unlimited)")
	fetchCmd.Flags().String("history", "", "SQLite history database path (empty disables history)")
	fetchCmd.Flags().Bool("metadata", false, "write a YAML metadata sidecar next to each PDF")
	fetchCmd.Flags().Bool("skip-existing", false, "skip DOIs whose PDF already exists in the download directory")

	rootCmd.AddCommand(fetchCmd)
}

// fetchConfig merges flags, config file, and defaults into a DownloadConfig.
func fetchConfig(cmd *cobra.Command) types.DownloadConfig {
	var cfg types.DownloadConfig
	cfg.Dir = viper.GetString("dir")
	cfg.Mirrors = viper.GetStringSlice("mirrors")
	cfg.ContactEmail = viper.GetString("contact_email")
	cfg.RotateEvery = viper.GetInt("rotate_every")
	cfg.HistoryDB = viper.GetString("history_db")
	cfg.WriteMetadata = viper.GetBool("write_metadata")
	cfg.MetadataTimeout = viper.GetDuration("metadata_timeout")
	cfg.DownloadTimeout = viper.GetDuration("download_timeout")
	cfg.UserAgent = viper.GetString("user_agent")
	cfg.RequestsPerSecond = viper.GetFloat64("requests_per_second")

	if v, _ := cmd.Flags().GetString("dir"); v != "" {
		cfg.Dir = v
	}
	if v, _ := cmd.Flags().GetStringSlice("mirror"); len(v) > 0 {
		cfg.Mirrors = v
	}
	if v, _ := cmd.Flags().GetString("email"); v != "" {
		cfg.ContactEmail = v
	}
	if v, _ := cmd.Flags().GetDuration("timeout"); v != 0 {
		cfg.MetadataTimeout = v
	}
	if v, _ := cmd.Flags().GetDuration("download-timeout"); v != 0 {
		cfg.DownloadTimeout = v
	}
	if v, _ := cmd.Flags().GetFloat64("rate"); v != 0 {
		cfg.RequestsPerSecond = v
	}
	if v, _ := cmd.Flags().GetString("history"); v != "" {
		cfg.HistoryDB = v
	}
	if v, _ := cmd.Flags().GetBool("metadata"); v {
		cfg.WriteMetadata = true
	}
	if cfg.ContactEmail == "" {
		cfg.ContactEmail = secretDefault("unpaywall-email", "")
	}

	cfg.Defaults()
	return cfg
}

func runFetch(cmd *cobra.Command, args []string) error {
	inputFile, _ := cmd.Flags().GetString("input")
	dois, err := collectDOIs(args, inputFile)
	if err != nil {
		return err
	}
	if len(dois) == 0 {
		return fmt.Errorf("provide one or more DOIs as arguments or via --input")
	}

	cfg := fetchConfig(cmd)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	client := fetch.New(cfg.HTTPConfig, log)
	contact := strategy.NewContactEmail(cfg.ContactEmail, cfg.RotateEvery)

	strategies := []strategy.Strategy{
		strategy.NewCrossRef(client, cfg.Dir, log),
		strategy.NewUnpaywall(client, cfg.Dir, contact, log),
		strategy.NewSciHub(client, cfg.Dir, cfg.Mirrors, log),
	}

	opts := []manager.Option{manager.WithContactEmail(contact)}
	if skip, _ := cmd.Flags().GetBool("skip-existing"); skip {
		opts = append(opts, manager.WithSkipExisting())
	}
	if cfg.HistoryDB != "" {
		store, err := history.Open(cfg.HistoryDB)
		if err != nil {
			return fmt.Errorf("opening history database: %w", err)
		}
		defer store.Close()
		opts = append(opts, manager.WithRecorder(store))
	}

	mgr := manager.New(strategies, cfg.Dir, log, opts...)

	start := time.Now()
	outcomes := mgr.DownloadBatch(ctx, dois)

	if cfg.WriteMetadata {
		writeSidecars(ctx, client, outcomes)
	}

	if err := mgr.SaveResults(); err != nil {
		log.Warn().Err(err).Msg("could not save summary CSV")
	}

	succeeded, failed := mgr.Summary()
	fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %d of %d papers in %s (%d failed)\n",
		succeeded, len(outcomes), time.Since(start).Round(time.Second), failed)
	for _, o := range outcomes {
		if !o.Success {
			fmt.Fprintf(cmd.OutOrStdout(), "  failed: %s\n", o.DOI)
		}
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("fetch interrupted: %w", err)
	}
	if failed > 0 {
		return fmt.Errorf("%d paper(s) could not be downloaded", failed)
	}
	return nil
}

// collectDOIs merges command-line arguments with the optional input file.
func collectDOIs(args []string, inputFile string) ([]string, error) {
	dois := append([]string(nil), args...)
	if inputFile == "" {
		return dois, nil
	}

	f, err := os.Open(inputFile)
	if err != nil {
		return nil, fmt.Errorf("opening input file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		dois = append(dois, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input file: %w", err)
	}
	return dois, nil
}

// writeSidecars fetches CrossRef metadata for each successful download and
// writes it as a YAML file next to the PDF. Failures are logged, not fatal.
func writeSidecars(ctx context.Context, client *fetch.Client, outcomes []types.Outcome) {
	fetcher := meta.NewFetcher(client, log)
	for _, o := range outcomes {
		if !o.Success {
			continue
		}
		paper, err := fetcher.Fetch(ctx, o.DOI)
		if err != nil {
			log.Warn().Str("doi", o.DOI).Err(err).Msg("metadata lookup failed")
			continue
		}
		paper.PDFPath = o.Path
		paper.Source = o.Strategy
		if _, err := meta.WriteSidecar(paper); err != nil {
			log.Warn().Str("doi", o.DOI).Err(err).Msg("could not write metadata sidecar")
		}
	}
}
