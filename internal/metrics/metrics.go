// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics computes per-paper relevance heuristics for a session.
// Everything here is a pure function of current corpus state; nothing is
// persisted and no model is called. Relevance is token overlap, not
// semantic similarity.
package metrics

import (
	"math"
	"regexp"
	"strings"

	"github.com/meshintel/corpus-engine/pkg/types"
)

// minTokenLen is the minimum word length counted by the metrics tokenizer.
// Longer than the retrieval tokenizer's minimum: short words add noise to
// overlap counts.
const minTokenLen = 4

var nonWord = regexp.MustCompile(`[^a-z0-9]+`)

// tokenize lowercases text, strips punctuation, and returns the set of
// tokens of length >= 4. No stopword filtering: the length floor already
// removes most function words, and keeping the rule simple keeps scores
// explainable.
func tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(nonWord.ReplaceAllString(strings.ToLower(text), " ")) {
		if len(tok) >= minTokenLen {
			tokens[tok] = struct{}{}
		}
	}
	return tokens
}

// Compute derives metrics for every paper against the session's topic.
// Results keep the input paper order.
//
// relevance counts distinct topic tokens found in a paper's title and
// abstract. relevanceScore normalizes that to 0-100 against the corpus
// maximum (all zeros when no paper matches at all). keywordHits counts
// every whole-word occurrence of each topic token across the paper's
// title, abstract, and full text.
func Compute(session types.Session, papers []types.Paper) []types.PaperMetrics {
	topicTokens := tokenize(session.Topic + " " + session.Title)

	results := make([]types.PaperMetrics, 0, len(papers))
	maxRelevance := 0

	for _, p := range papers {
		paperTokens := tokenize(p.Title + " " + p.Abstract)

		relevance := 0
		for tok := range topicTokens {
			if _, ok := paperTokens[tok]; ok {
				relevance++
			}
		}
		if relevance > maxRelevance {
			maxRelevance = relevance
		}

		citations := p.CitationCount
		if citations < 0 {
			citations = 0
		}

		results = append(results, types.PaperMetrics{
			PaperID:     p.ID,
			Title:       p.Title,
			Relevance:   relevance,
			KeywordHits: keywordHits(topicTokens, p),
			Citations:   citations,
		})
	}

	for i := range results {
		if maxRelevance > 0 {
			score := 100 * float64(results[i].Relevance) / float64(maxRelevance)
			results[i].RelevanceScore = int(math.Round(score))
		}
	}

	return results
}

// keywordHits counts whole-word occurrences of every topic token in the
// paper's title, abstract, and full text. Occurrences are total, not
// distinct: a token appearing five times counts five.
func keywordHits(topicTokens map[string]struct{}, p types.Paper) int {
	if len(topicTokens) == 0 {
		return 0
	}

	text := nonWord.ReplaceAllString(strings.ToLower(p.Title+" "+p.Abstract+" "+p.FullText), " ")
	hits := 0
	for _, word := range strings.Fields(text) {
		if _, ok := topicTokens[word]; ok {
			hits++
		}
	}
	return hits
}
