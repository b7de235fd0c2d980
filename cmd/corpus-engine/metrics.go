// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meshintel/corpus-engine/internal/metrics"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show per-paper relevance metrics for the session topic",
	Long: `Metrics scores every paper in the session against the session topic:
topic-token overlap (relevance), a 0-100 score normalized to the best
paper, whole-word keyword hits across the paper's text, and the stored
citation count. Scores are token-overlap heuristics recomputed on demand,
not semantic similarity.`,
	RunE: runMetrics,
}

func runMetrics(cmd *cobra.Command, args []string) error {
	session, err := sessionFromFlags(cmd)
	if err != nil {
		return err
	}

	cfg := engineConfig()
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	papers, err := store.Papers(context.Background(), session.ID)
	if err != nil {
		return err
	}

	results := metrics.Compute(session, papers)

	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No papers in this session.")
		return nil
	}

	fmt.Printf("%-50s  %-9s  %-5s  %-12s  %s\n", "Title", "Relevance", "Score", "KeywordHits", "Citations")
	fmt.Println(strings.Repeat("-", 92))
	for _, m := range results {
		title := m.Title
		if len(title) > 50 {
			title = title[:47] + "..."
		}
		fmt.Printf("%-50s  %-9d  %-5d  %-12d  %d\n", title, m.Relevance, m.RelevanceScore, m.KeywordHits, m.Citations)
	}
	return nil
}

func init() {
	metricsCmd.Flags().Bool("json", false, "output metrics as JSON")

	rootCmd.AddCommand(metricsCmd)
}
