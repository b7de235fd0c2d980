// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package draft composes editable documents from a session's corpus. Two
// styles: a short summary and a multi-section literature review. Both are
// grounded through the same excerpt-and-cite pipeline as chat answers;
// the composed document is returned to the caller and never persisted.
package draft

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/meshintel/corpus-engine/internal/corpus"
	"github.com/meshintel/corpus-engine/internal/generate"
	"github.com/meshintel/corpus-engine/pkg/types"
)

// ErrInvalidStyle reports a style other than summary or literature_review.
// Checked before any retrieval or model work.
var ErrInvalidStyle = errors.New("invalid draft style")

// Composer builds draft documents over one session's corpus.
type Composer struct {
	store  *corpus.Store
	gen    *generate.Generator
	cfg    types.DraftConfig
	logger *zap.Logger
}

// Option configures optional Composer collaborators.
type Option func(*Composer)

// WithLogger attaches a logger. The default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Composer) { c.logger = l }
}

// NewComposer builds a Composer over a corpus store and generator.
func NewComposer(store *corpus.Store, gen *generate.Generator, cfg types.DraftConfig, opts ...Option) *Composer {
	if cfg.ChunkBudget <= 0 {
		cfg.ChunkBudget = 24
	}
	if cfg.MaxThemes <= 0 {
		cfg.MaxThemes = 4
	}

	c := &Composer{
		store:  store,
		gen:    gen,
		cfg:    cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose builds a document in the requested style. The corpus is
// snapshotted at invocation: papers removed while a compose is in flight
// do not affect it. An empty corpus returns corpus.ErrEmptyCorpus.
func (c *Composer) Compose(ctx context.Context, session types.Session, style types.DraftStyle) (types.Document, error) {
	var doc types.Document

	switch style {
	case types.StyleSummary, types.StyleLiteratureReview:
	default:
		return doc, fmt.Errorf("%w: %q", ErrInvalidStyle, style)
	}

	papers, err := c.store.Papers(ctx, session.ID)
	if err != nil {
		return doc, err
	}
	if len(papers) == 0 {
		return doc, corpus.ErrEmptyCorpus
	}

	switch style {
	case types.StyleSummary:
		doc, err = c.composeSummary(ctx, session, papers)
	case types.StyleLiteratureReview:
		doc, err = c.composeReview(ctx, session, papers)
	}
	if err != nil {
		return types.Document{}, err
	}

	c.logger.Info("draft composed",
		zap.String("session", session.ID),
		zap.String("style", string(style)),
		zap.Int("sections", len(doc.Sections)))

	return doc, nil
}

// composeSummary makes one generation call over a round-robin selection of
// each paper's best chunks for the session topic.
func (c *Composer) composeSummary(ctx context.Context, session types.Session, papers []types.Paper) (types.Document, error) {
	chunks, err := c.selectRoundRobin(ctx, session, papers)
	if err != nil {
		return types.Document{}, err
	}

	instruction := fmt.Sprintf(
		"Write a summary of the research on %s covered by the source excerpts, in two to four paragraphs. Cover the main findings and how the sources relate to each other.",
		session.TopicText())

	text, citations, err := c.gen.SectionFromChunks(ctx, session, chunks, instruction)
	if err != nil {
		return types.Document{}, err
	}

	return types.Document{
		SessionID: session.ID,
		Style:     types.StyleSummary,
		Sections: []types.DocumentSection{{
			Title:     "Summary",
			Text:      text,
			Citations: citations,
		}},
	}, nil
}

// selectRoundRobin picks chunks one per paper in rotation, best first
// within each paper, until the chunk budget is spent. Every paper with any
// on-topic chunk contributes before any paper contributes twice.
func (c *Composer) selectRoundRobin(ctx context.Context, session types.Session, papers []types.Paper) ([]corpus.ScoredChunk, error) {
	perPaper := make([][]corpus.ScoredChunk, 0, len(papers))
	for _, p := range papers {
		if p.Unindexable {
			continue
		}
		ranked, err := c.store.PaperChunksRanked(ctx, session.ID, p.ID, session.TopicText())
		if err != nil {
			return nil, err
		}
		if len(ranked) > 0 {
			perPaper = append(perPaper, ranked)
		}
	}

	var selected []corpus.ScoredChunk
	for round := 0; len(selected) < c.cfg.ChunkBudget; round++ {
		took := false
		for _, ranked := range perPaper {
			if round >= len(ranked) {
				continue
			}
			selected = append(selected, ranked[round])
			took = true
			if len(selected) == c.cfg.ChunkBudget {
				break
			}
		}
		if !took {
			break
		}
	}
	return selected, nil
}

// composeReview builds Introduction, one section per detected theme, and
// Conclusion. Sections generate concurrently and assemble in fixed order.
func (c *Composer) composeReview(ctx context.Context, session types.Session, papers []types.Paper) (types.Document, error) {
	themes := clusterPapers(papers, c.cfg.MaxThemes)

	type sectionSpec struct {
		title       string
		query       string
		instruction string
	}

	topic := session.TopicText()
	specs := []sectionSpec{{
		title: "Introduction",
		query: topic,
		instruction: fmt.Sprintf(
			"Write an introduction for a literature review on %s. State the scope of the reviewed sources and the questions they address, in one or two paragraphs.",
			topic),
	}}
	for _, th := range themes {
		specs = append(specs, sectionSpec{
			title: th.label,
			query: th.label + " " + topic,
			instruction: fmt.Sprintf(
				"Write a literature review section on %s. Compare what the source excerpts report, noting agreements and differences, in one to three paragraphs.",
				th.label),
		})
	}
	specs = append(specs, sectionSpec{
		title: "Conclusion",
		query: topic,
		instruction: fmt.Sprintf(
			"Write a conclusion for a literature review on %s. Synthesize the main findings from the source excerpts and note open questions, in one or two paragraphs.",
			topic),
	})

	sections := make([]types.DocumentSection, len(specs))
	g, gctx := errgroup.WithContext(ctx)
	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			text, citations, err := c.gen.Section(gctx, session, spec.query, spec.instruction)
			if err != nil {
				return fmt.Errorf("section %q: %w", spec.title, err)
			}
			sections[i] = types.DocumentSection{
				Title:     spec.title,
				Text:      text,
				Citations: citations,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return types.Document{}, err
	}

	// Sections with no grounding evidence drop out rather than padding
	// the document with empty headings.
	kept := sections[:0]
	for _, s := range sections {
		if s.Text != "" {
			kept = append(kept, s)
		}
	}

	return types.Document{
		SessionID: session.ID,
		Style:     types.StyleLiteratureReview,
		Sections:  kept,
	}, nil
}
