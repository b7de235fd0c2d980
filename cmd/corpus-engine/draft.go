// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meshintel/corpus-engine/internal/corpus"
	"github.com/meshintel/corpus-engine/internal/draft"
	"github.com/meshintel/corpus-engine/pkg/types"
)

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Compose a grounded draft document from the session's sources",
	Long: `Draft composes an editable document grounded in the session's corpus.

Styles:
  summary            a short overview in one section
  literature_review  Introduction, thematic sections, and Conclusion

The document is written to stdout (or --output) as Markdown; it is not
stored server-side.`,
	RunE: runDraft,
}

func runDraft(cmd *cobra.Command, args []string) error {
	session, err := sessionFromFlags(cmd)
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

	composer := draft.NewComposer(store, newGenerator(store, cfg), cfg.Draft, draft.WithLogger(logger))

	doc, err := composer.Compose(context.Background(), session, types.DraftStyle(styleFlag))
	switch {
	case errors.Is(err, draft.ErrInvalidStyle):
		return fmt.Errorf("unknown style %q: use summary or literature_review", styleFlag)
	case errors.Is(err, corpus.ErrEmptyCorpus):
		return fmt.Errorf("no papers in session %s: add sources before drafting", session.ID)
	case err != nil:
		return err
	}

	md := doc.Markdown()
	if output, _ := cmd.Flags().GetString("output"); output != "" {
		if err := os.WriteFile(output, []byte(md+"\n"), 0o644); err != nil {
			return fmt.Errorf("writing draft: %w", err)
		}
		fmt.Printf("Draft written to %s (%d sections)\n", output, len(doc.Sections))
		return nil
	}

	fmt.Println(md)
	return nil
}

func init() {
	draftCmd.Flags().String("style", string(types.StyleSummary), "draft style: summary or literature_review")
	draftCmd.Flags().String("output", "", "write the draft to a file instead of stdout")

	rootCmd.AddCommand(draftCmd)
}
