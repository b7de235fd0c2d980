// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/meshintel/corpus-engine/pkg/types"
)

// ftsCandidateLimit bounds the FTS recall stage. Scoring and ranking happen
// on this candidate set, not on the raw index.
const ftsCandidateLimit = 200

// ScoredChunk is a retrieved chunk together with the metadata of its paper
// and its relevance score in [0, 1].
type ScoredChunk struct {
	types.Chunk

	PaperTitle   string   `json:"paper_title"`
	PaperAuthors []string `json:"paper_authors"`
	PaperYear    int      `json:"paper_year"`
	Score        float64  `json:"score"`
}

// Retrieve returns the top-k chunks of a session's corpus for a query.
// Candidates come from the full-text index, are scored by query-token
// overlap (blended with embedding cosine similarity when the store has an
// Embedder), capped per paper, and filtered by the minimum-score threshold.
// Ordering is deterministic: score descending, then paper id, then chunk
// sequence.
//
// An empty result is not an error; callers treat it as "no grounding
// evidence". Retrieval on an empty corpus returns ErrEmptyCorpus.
func (s *Store) Retrieve(ctx context.Context, sessionID, query string, k int) ([]ScoredChunk, error) {
	count, err := s.PaperCount(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrEmptyCorpus
	}

	if k <= 0 {
		k = s.retr.DefaultK
	}
	if k > s.retr.MaxResults {
		k = s.retr.MaxResults
	}

	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 {
		return nil, nil
	}

	candidates, err := s.ftsCandidates(ctx, sessionID, queryTokens)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	var queryVec []float32
	if s.embedder != nil {
		queryVec, err = s.embedder.Embed(ctx, query)
		if err != nil {
			s.logger.Warn("query embedding failed, using lexical score only",
				zap.Error(err))
			queryVec = nil
		}
	}

	for i := range candidates {
		c := &candidates[i]
		lexical := overlapScore(queryTokens, Tokenize(c.Text+" "+c.PaperTitle))
		c.Score = lexical
		if queryVec != nil {
			chunkVec, err := s.embedder.Embed(ctx, c.Text)
			if err == nil {
				sim := cosine(queryVec, chunkVec)
				if sim < 0 {
					sim = 0
				}
				c.Score = 0.75*lexical + 0.25*sim
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.PaperID != b.PaperID {
			return a.PaperID < b.PaperID
		}
		return a.Seq < b.Seq
	})

	perPaper := make(map[string]int)
	results := make([]ScoredChunk, 0, k)
	for _, c := range candidates {
		if c.Score < s.retr.MinScore {
			break
		}
		if perPaper[c.PaperID] >= s.retr.MaxPerPaper {
			continue
		}
		perPaper[c.PaperID]++
		results = append(results, c)
		if len(results) == k {
			break
		}
	}

	s.logger.Debug("retrieval complete",
		zap.String("session", sessionID),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(results)))

	return results, nil
}

// PaperChunksRanked returns one paper's chunks scored by lexical overlap
// against a query, best first. Unlike Retrieve it applies no threshold and
// no cap; callers selecting chunks paper by paper (the draft composer)
// decide how many to keep. Ties keep sequence order.
func (s *Store) PaperChunksRanked(ctx context.Context, sessionID, paperID, query string) ([]ScoredChunk, error) {
	chunks, err := s.Chunks(ctx, sessionID, paperID)
	if err != nil {
		return nil, err
	}

	var (
		title   string
		authors string
		year    int
	)
	err = s.db.QueryRowContext(ctx,
		`SELECT title, authors, year FROM papers WHERE session_id = ? AND id = ?`,
		sessionID, paperID,
	).Scan(&title, &authors, &year)
	if err != nil {
		return nil, fmt.Errorf("querying paper %s: %w", paperID, err)
	}

	queryTokens := Tokenize(query)
	ranked := make([]ScoredChunk, 0, len(chunks))
	for _, c := range chunks {
		ranked = append(ranked, ScoredChunk{
			Chunk:        c,
			PaperTitle:   title,
			PaperAuthors: decodeAuthors(authors),
			PaperYear:    year,
			Score:        overlapScore(queryTokens, Tokenize(c.Text+" "+title)),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked, nil
}

// ftsCandidates runs the recall stage: an OR query over the tokenized query
// terms against the chunk full-text index, scoped to one session.
func (s *Store) ftsCandidates(ctx context.Context, sessionID string, queryTokens map[string]struct{}) ([]ScoredChunk, error) {
	terms := make([]string, 0, len(queryTokens))
	for tok := range queryTokens {
		terms = append(terms, `"`+strings.ReplaceAll(tok, `"`, ``)+`"`)
	}
	sort.Strings(terms)
	match := strings.Join(terms, " OR ")

	rows, err := s.db.QueryContext(ctx,
		`SELECT c.paper_id, c.seq, c.start_off, c.end_off, c.text,
			p.title, p.authors, p.year
		 FROM chunks_fts f
		 JOIN chunks c ON c.rowid = f.rowid
		 JOIN papers p ON p.session_id = c.session_id AND p.id = c.paper_id
		 WHERE chunks_fts MATCH ? AND c.session_id = ?
		 ORDER BY c.paper_id, c.seq
		 LIMIT ?`,
		match, sessionID, ftsCandidateLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying full-text index: %w", err)
	}
	defer rows.Close()

	var candidates []ScoredChunk
	for rows.Next() {
		var (
			c           ScoredChunk
			authorsJSON string
		)
		if err := rows.Scan(
			&c.PaperID, &c.Seq, &c.Start, &c.End, &c.Text,
			&c.PaperTitle, &authorsJSON, &c.PaperYear,
		); err != nil {
			return nil, fmt.Errorf("scanning candidate: %w", err)
		}
		c.PaperAuthors = decodeAuthors(authorsJSON)
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}
