// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generate produces answers and draft prose grounded in a
// session's corpus. Every generated claim must cite a retrieved excerpt;
// output with no valid citations is replaced by a refusal.
package generate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/meshintel/corpus-engine/internal/corpus"
	"github.com/meshintel/corpus-engine/pkg/types"
)

// ErrUnavailable reports a generation model call that failed after retries.
var ErrUnavailable = errors.New("generation model unavailable")

// RefusalText is the fixed answer returned when the corpus holds no
// evidence for a question. It never varies, so callers and tests can rely
// on it.
const RefusalText = "I don't have enough evidence in this session's sources to answer that. Add more papers to the session or rephrase the question."

// Generator answers questions and writes draft sections against one
// session's corpus.
type Generator struct {
	store   *corpus.Store
	backend Backend
	cfg     types.GenerationConfig
	logger  *zap.Logger
}

// Option configures optional Generator collaborators.
type Option func(*Generator)

// WithLogger attaches a logger. The default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// NewGenerator builds a Generator over a corpus store and model backend.
func NewGenerator(store *corpus.Store, backend Backend, cfg types.GenerationConfig, opts ...Option) *Generator {
	if cfg.MaxContextChunks <= 0 {
		cfg.MaxContextChunks = 8
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 6
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}

	g := &Generator{
		store:   store,
		backend: backend,
		cfg:     cfg,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Answer answers a question from the session's corpus.
//
// The question is recorded in the session history before the model is
// called; the answer is recorded only once it completes (grounded or
// refused). A model failure returns ErrUnavailable and records no
// assistant turn. An empty corpus returns corpus.ErrEmptyCorpus with
// nothing recorded at all.
//
// When retrieval finds no evidence above the relevance threshold, or the
// model's output cites no supplied excerpt, the answer is the fixed
// refusal with zero citations and no model output is surfaced.
func (g *Generator) Answer(ctx context.Context, session types.Session, question string) (types.GroundedAnswer, error) {
	var answer types.GroundedAnswer

	chunks, err := g.store.Retrieve(ctx, session.ID, question, g.cfg.MaxContextChunks)
	if err != nil {
		return answer, err
	}

	// Prior turns only: the prompt's history must not include the
	// question being asked.
	history, err := g.store.History(ctx, session.ID, g.cfg.HistoryWindow)
	if err != nil {
		return answer, err
	}

	if _, err := g.store.AppendTurn(ctx, session.ID, types.RoleUser, question, nil); err != nil {
		return answer, fmt.Errorf("recording question: %w", err)
	}

	if len(chunks) == 0 {
		g.logger.Info("refusing: no evidence above threshold",
			zap.String("session", session.ID))
		return g.refuse(ctx, session.ID)
	}

	excerpts := buildExcerpts(chunks)
	system, err := renderSystemPrompt(answerSystemTmpl, session.TopicText(), excerpts)
	if err != nil {
		return answer, err
	}
	user := renderUserPrompt(history, question)

	callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	text, err := g.backend.Complete(callCtx, system, user)
	if err != nil {
		return answer, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	cleaned, citations := resolveCitations(text, excerpts)
	if len(citations) == 0 {
		g.logger.Info("refusing: model output cited no sources",
			zap.String("session", session.ID))
		return g.refuse(ctx, session.ID)
	}

	cited := make([]string, 0, len(citations))
	for _, c := range citations {
		cited = append(cited, c.PaperID)
	}
	if _, err := g.store.AppendTurn(ctx, session.ID, types.RoleAssistant, cleaned, cited); err != nil {
		return answer, fmt.Errorf("recording answer: %w", err)
	}

	g.logger.Info("answer generated",
		zap.String("session", session.ID),
		zap.Int("excerpts", len(excerpts)),
		zap.Int("citations", len(citations)))

	return types.GroundedAnswer{
		State:     types.AnswerGrounded,
		Text:      cleaned,
		Citations: citations,
	}, nil
}

// refuse records the refusal as the assistant turn and returns it. A
// refusal is a completed answer, not an error.
func (g *Generator) refuse(ctx context.Context, sessionID string) (types.GroundedAnswer, error) {
	if _, err := g.store.AppendTurn(ctx, sessionID, types.RoleAssistant, RefusalText, nil); err != nil {
		return types.GroundedAnswer{}, fmt.Errorf("recording refusal: %w", err)
	}
	return types.GroundedAnswer{
		State: types.AnswerRefused,
		Text:  RefusalText,
	}, nil
}

// Section generates one grounded passage for a draft document. It runs the
// same retrieve-prompt-validate pipeline as Answer but reads and writes no
// conversation history. An empty result (no evidence) is returned as empty
// text with no citations, not a refusal.
func (g *Generator) Section(ctx context.Context, session types.Session, query, instruction string) (string, []types.Citation, error) {
	chunks, err := g.store.Retrieve(ctx, session.ID, query, g.cfg.MaxContextChunks)
	if err != nil {
		return "", nil, err
	}
	return g.SectionFromChunks(ctx, session, chunks, instruction)
}

// SectionFromChunks is Section for callers that have already selected the
// grounding chunks themselves.
func (g *Generator) SectionFromChunks(ctx context.Context, session types.Session, chunks []corpus.ScoredChunk, instruction string) (string, []types.Citation, error) {
	if len(chunks) == 0 {
		return "", nil, nil
	}

	excerpts := buildExcerpts(chunks)
	system, err := renderSystemPrompt(sectionSystemTmpl, session.TopicText(), excerpts)
	if err != nil {
		return "", nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	text, err := g.backend.Complete(callCtx, system, instruction)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	cleaned, citations := resolveCitations(text, excerpts)
	if len(citations) == 0 {
		return "", nil, nil
	}
	return cleaned, citations, nil
}
