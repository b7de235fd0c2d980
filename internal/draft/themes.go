// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package draft

import (
	"sort"
	"strings"

	"github.com/meshintel/corpus-engine/internal/corpus"
	"github.com/meshintel/corpus-engine/pkg/types"
)

// themeJaccardThreshold is the minimum token-set similarity for a paper to
// join an existing theme instead of opening a new one.
const themeJaccardThreshold = 0.15

// theme is a cluster of topically similar papers with a short label used
// both as the section heading and as the section's retrieval query.
type theme struct {
	label  string
	papers []types.Paper
}

type cluster struct {
	papers []types.Paper
	tokens map[string]struct{}
}

// clusterPapers groups papers by title+abstract token overlap. Greedy
// single pass in input order: each paper joins the most similar existing
// cluster above the threshold, otherwise starts a new one. Once maxThemes
// clusters exist, remaining papers join their nearest cluster regardless
// of similarity, so no paper is dropped from the review.
func clusterPapers(papers []types.Paper, maxThemes int) []theme {
	if maxThemes <= 0 {
		maxThemes = 4
	}

	var clusters []*cluster
	for _, p := range papers {
		tokens := corpus.Tokenize(p.Title + " " + p.Abstract)

		bestIdx := -1
		bestSim := 0.0
		for i, c := range clusters {
			if sim := jaccard(tokens, c.tokens); sim > bestSim {
				bestSim = sim
				bestIdx = i
			}
		}

		switch {
		case bestIdx >= 0 && bestSim >= themeJaccardThreshold:
			// Similar enough to an existing theme.
		case len(clusters) < maxThemes:
			clusters = append(clusters, &cluster{
				papers: []types.Paper{p},
				tokens: tokens,
			})
			continue
		case bestIdx < 0:
			// Theme budget exhausted and no overlap with anything; fold
			// into the smallest cluster.
			bestIdx = smallestCluster(clusters)
		}

		c := clusters[bestIdx]
		c.papers = append(c.papers, p)
		for tok := range tokens {
			c.tokens[tok] = struct{}{}
		}
	}

	themes := make([]theme, 0, len(clusters))
	for _, c := range clusters {
		themes = append(themes, theme{
			label:  themeLabel(c.papers),
			papers: c.papers,
		})
	}
	return themes
}

func smallestCluster(clusters []*cluster) int {
	best := 0
	for i, c := range clusters {
		if len(c.papers) < len(clusters[best].papers) {
			best = i
		}
	}
	return best
}

// jaccard is intersection over union of two token sets.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// themeLabel names a cluster after the tokens its papers share most. Up to
// three tokens, ordered by how many papers contain them, ties broken
// alphabetically, capitalized for use as a heading.
func themeLabel(papers []types.Paper) string {
	counts := make(map[string]int)
	for _, p := range papers {
		for tok := range corpus.Tokenize(p.Title + " " + p.Abstract) {
			counts[tok]++
		}
	}

	tokens := make([]string, 0, len(counts))
	for tok := range counts {
		tokens = append(tokens, tok)
	}
	sort.Slice(tokens, func(i, j int) bool {
		if counts[tokens[i]] != counts[tokens[j]] {
			return counts[tokens[i]] > counts[tokens[j]]
		}
		return tokens[i] < tokens[j]
	})

	if len(tokens) > 3 {
		tokens = tokens[:3]
	}
	if len(tokens) == 0 {
		return "Further Work"
	}
	for i, tok := range tokens {
		tokens[i] = strings.ToUpper(tok[:1]) + tok[1:]
	}
	return strings.Join(tokens, " ")
}
