// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meshintel/corpus-engine/internal/corpus"
	"github.com/meshintel/corpus-engine/internal/generate"
	"github.com/meshintel/corpus-engine/pkg/types"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question answered only from the session's sources",
	Long: `Ask retrieves the most relevant chunks from the session's corpus and
generates an answer grounded in them, with bracket citations naming the
source papers. When the corpus holds no evidence for the question, the
engine refuses instead of answering from model memory.

The question and answer are appended to the session's conversation
history, so follow-up questions can refer to earlier turns.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	session, err := sessionFromFlags(cmd)
	if err != nil {
		return err
	}
	question := strings.Join(args, " ")

	cfg := engineConfig()
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	gen := newGenerator(store, cfg)

	answer, err := gen.Answer(context.Background(), session, question)
	switch {
	case errors.Is(err, corpus.ErrEmptyCorpus):
		return fmt.Errorf("no papers in session %s: add sources before asking", session.ID)
	case errors.Is(err, generate.ErrUnavailable):
		return fmt.Errorf("the model could not be reached, try again: %w", err)
	case err != nil:
		return err
	}

	fmt.Println(answer.Text)

	if answer.State == types.AnswerGrounded && len(answer.Citations) > 0 {
		fmt.Println("\nSources:")
		for _, c := range answer.Citations {
			fmt.Printf("  [%s] %s\n", c.Tag, c.PaperID)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(askCmd)
}
