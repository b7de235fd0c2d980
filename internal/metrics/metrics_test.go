// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshintel/corpus-engine/pkg/types"
)

func TestComputeRelevance(t *testing.T) {
	session := types.Session{Topic: "machine learning diagnostics"}
	papers := []types.Paper{
		{ID: "a", Title: "Machine Learning for Diagnostics", CitationCount: 50},
		{ID: "b", Title: "Cooking Recipes", CitationCount: 5},
	}

	got := Compute(session, papers)
	require.Len(t, got, 2)

	a, b := got[0], got[1]
	assert.Greater(t, a.Relevance, b.Relevance)
	assert.Equal(t, 100, a.RelevanceScore)
	assert.Equal(t, 0, b.RelevanceScore)
	assert.Equal(t, 50, a.Citations)
	assert.Equal(t, 5, b.Citations)
}

func TestComputeAllZeroRelevance(t *testing.T) {
	session := types.Session{Topic: "quantum cryptography"}
	papers := []types.Paper{
		{ID: "a", Title: "Cooking Recipes"},
		{ID: "b", Title: "Garden Design"},
	}

	got := Compute(session, papers)
	for _, m := range got {
		assert.Equal(t, 0, m.Relevance)
		assert.Equal(t, 0, m.RelevanceScore)
	}
}

func TestComputeKeywordHits(t *testing.T) {
	session := types.Session{Topic: "entropy estimation"}
	papers := []types.Paper{{
		ID:       "a",
		Title:    "Entropy methods",
		Abstract: "We study entropy estimation.",
		FullText: "Entropy appears here. Entropy estimation is discussed. The entropy-rate differs.",
	}}

	got := Compute(session, papers)
	require.Len(t, got, 1)

	// "entropy": title 1 + abstract 1 + full text 3 (the hyphenated
	// "entropy-rate" splits into whole words) = 5.
	// "estimation": abstract 1 + full text 1 = 2.
	assert.Equal(t, 7, got[0].KeywordHits)
}

func TestComputeDistinctVsTotalCounting(t *testing.T) {
	session := types.Session{Topic: "wavelet wavelet wavelet"}
	papers := []types.Paper{{
		ID:       "a",
		Title:    "Wavelet wavelet wavelet analysis",
		Abstract: "wavelet",
	}}

	got := Compute(session, papers)
	// Relevance is distinct intersection: one topic token.
	assert.Equal(t, 1, got[0].Relevance)
	// Hits are total occurrences.
	assert.Equal(t, 4, got[0].KeywordHits)
}

func TestComputeClampsNegativeCitations(t *testing.T) {
	got := Compute(types.Session{Topic: "anything"}, []types.Paper{
		{ID: "a", Title: "Paper", CitationCount: -3},
	})
	assert.Equal(t, 0, got[0].Citations)
}

func TestComputeShortTokensIgnored(t *testing.T) {
	// "eeg" is only three characters; the metrics tokenizer requires four.
	session := types.Session{Topic: "eeg data"}
	papers := []types.Paper{{ID: "a", Title: "EEG data handbook"}}

	got := Compute(session, papers)
	assert.Equal(t, 1, got[0].Relevance) // only "data" counts
}

func TestComputeUsesSessionTitleToo(t *testing.T) {
	session := types.Session{Title: "Alzheimer survey", Topic: ""}
	papers := []types.Paper{{ID: "a", Title: "Alzheimer progression markers"}}

	got := Compute(session, papers)
	assert.Equal(t, 1, got[0].Relevance)
}

func TestComputeDeterministic(t *testing.T) {
	session := types.Session{Topic: "spectral graph clustering"}
	papers := []types.Paper{
		{ID: "a", Title: "Spectral clustering at scale", Abstract: "Graph partitioning."},
		{ID: "b", Title: "Unrelated botany field guide"},
	}

	first := Compute(session, papers)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Compute(session, papers))
	}
}

func TestComputeEmptyCorpus(t *testing.T) {
	got := Compute(types.Session{Topic: "anything"}, nil)
	assert.Empty(t, got)
}
