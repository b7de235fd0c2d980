// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the session's conversation history",
	Long: `History prints the session's recorded question and answer turns in
order. Turns are append-only: the engine records a user turn for every
confirmed question and an assistant turn for every completed answer,
including refusals.`,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	sessionID, err := requireSession(cmd)
	if err != nil {
		return err
	}
	lastN, _ := cmd.Flags().GetInt("last")

	cfg := engineConfig()
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	turns, err := store.History(context.Background(), sessionID, lastN)
	if err != nil {
		return err
	}

	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(turns)
	}

	if len(turns) == 0 {
		fmt.Println("No conversation recorded for this session.")
		return nil
	}

	for _, t := range turns {
		fmt.Printf("%3d  %-9s  %s\n", t.Seq, t.Role, t.Content)
		if len(t.CitedPapers) > 0 {
			fmt.Printf("     cited: %s\n", strings.Join(t.CitedPapers, ", "))
		}
	}
	return nil
}

func init() {
	historyCmd.Flags().Int("last", 0, "show only the most recent N turns (0 = all)")
	historyCmd.Flags().Bool("json", false, "output turns as JSON")

	rootCmd.AddCommand(historyCmd)
}
