// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperhound/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Query the download history database",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().String("db", "paperhound.db", "SQLite history database path")
	historyCmd.Flags().Int("limit", 20, "maximum number of entries to show")
	historyCmd.Flags().Bool("failures", false, "list only DOIs that have never succeeded")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	dbPath, _ := cmd.Flags().GetString("db")
	store, err := history.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening history database: %w", err)
	}
	defer store.Close()

	if failuresOnly, _ := cmd.Flags().GetBool("failures"); failuresOnly {
		dois, err := store.Failures()
		if err != nil {
			return err
		}
		if len(dois) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No unresolved failures.")
			return nil
		}
		for _, d := range dois {
			fmt.Fprintln(cmd.OutOrStdout(), d)
		}
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := store.List(limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "History is empty.")
		return nil
	}
	for _, e := range entries {
		status := "FAIL"
		if e.Success {
			status = "ok"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %-4s %-12s %s\n",
			e.RecordedAt.Format("2006-01-02 15:04"), status, e.Strategy, e.DOI)
	}
	return nil
}
