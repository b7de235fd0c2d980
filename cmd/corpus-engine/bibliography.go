// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meshintel/corpus-engine/internal/cite"
)

var bibliographyCmd = &cobra.Command{
	Use:   "bibliography",
	Short: "Export the session's papers as a formatted bibliography",
	Long: `Bibliography renders every paper in the session in the chosen citation
style. Formatting is pure and deterministic; missing metadata degrades to
placeholders (Unknown Author, n.d.) instead of failing.`,
	RunE: runBibliography,
}

func runBibliography(cmd *cobra.Command, args []string) error {
	sessionID, err := requireSession(cmd)
	if err != nil {
		return err
	}
	styleFlag, _ := cmd.Flags().GetString("style")

	cfg := engineConfig()
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	papers, err := store.Papers(context.Background(), sessionID)
	if err != nil {
		return err
	}
	if len(papers) == 0 {
		fmt.Println("No papers in this session.")
		return nil
	}

	text, err := cite.Format(papers, cite.Style(styleFlag))
	if errors.Is(err, cite.ErrUnknownStyle) {
		return fmt.Errorf("unknown style %q: use bibtex, apa, mla, or ieee", styleFlag)
	}
	if err != nil {
		return err
	}

	fmt.Println(text)
	return nil
}

func init() {
	bibliographyCmd.Flags().String("style", string(cite.StyleBibTeX), "citation style: bibtex, apa, mla, or ieee")

	rootCmd.AddCommand(bibliographyCmd)
}
