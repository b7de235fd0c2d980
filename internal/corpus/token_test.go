// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"testing"

	"github.com/meshintel/corpus-engine/pkg/types"
)

func tokensOf(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for tok := range set {
		out = append(out, tok)
	}
	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []string
		exclude []string
	}{
		{
			name:    "lowercases and strips punctuation",
			in:      "EEG-Based Detection, (v2) of Alzheimer's!",
			want:    []string{"eeg-based", "detection", "alzheimer"},
			exclude: []string{"of", "v2"},
		},
		{
			name:    "drops stopwords and short tokens",
			in:      "a study of the deep learning approach to EEG",
			want:    []string{"eeg"},
			exclude: []string{"study", "deep", "learning", "approach", "the"},
		},
		{
			name: "keeps digits and hyphens",
			in:   "covid-19 biomarkers 2024",
			want: []string{"covid-19", "biomarkers", "2024"},
		},
		{
			name: "empty input",
			in:   "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			for _, tok := range tt.want {
				if _, ok := got[tok]; !ok {
					t.Errorf("missing token %q in %v", tok, tokensOf(got))
				}
			}
			for _, tok := range tt.exclude {
				if _, ok := got[tok]; ok {
					t.Errorf("unexpected token %q", tok)
				}
			}
		})
	}
}

func TestOverlapScore(t *testing.T) {
	query := Tokenize("alzheimer detection biomarkers")
	full := Tokenize("alzheimer detection biomarkers imaging")
	half := Tokenize("alzheimer imaging protocols")
	none := Tokenize("quantum computing")

	if got := overlapScore(query, full); got != 1.0 {
		t.Errorf("full overlap = %v, want 1.0", got)
	}
	if got := overlapScore(query, half); got < 0.3 || got > 0.4 {
		t.Errorf("partial overlap = %v, want 1/3", got)
	}
	if got := overlapScore(query, none); got != 0 {
		t.Errorf("no overlap = %v, want 0", got)
	}
	if got := overlapScore(Tokenize(""), full); got != 0 {
		t.Errorf("empty query = %v, want 0", got)
	}
}

func TestCitationTag(t *testing.T) {
	tests := []struct {
		name  string
		paper types.Paper
		want  string
	}{
		{
			name: "title keywords and year",
			paper: types.Paper{
				Title: "EEG biomarkers for early Alzheimer detection",
				Year:  2019,
			},
			want: "Alzheimer-Biomarkers-2019",
		},
		{
			name: "author fallback when title has no keywords",
			paper: types.Paper{
				Title:   "On the",
				Authors: []string{"Ada Lovelace", "Charles Babbage"},
				Year:    1843,
			},
			want: "Lovelace1843",
		},
		{
			name:  "generic fallback",
			paper: types.Paper{},
			want:  "Source-n.d.",
		},
		{
			name: "missing year",
			paper: types.Paper{
				Title: "Graph compression survey",
			},
			want: "Compression-Graph-n.d.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CitationTag(tt.paper); got != tt.want {
				t.Errorf("CitationTag = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCitationTagDeterministic(t *testing.T) {
	p := types.Paper{
		Title: "Transfer entropy estimation between coupled chaotic systems",
		Year:  2021,
	}
	first := CitationTag(p)
	for i := 0; i < 10; i++ {
		if got := CitationTag(p); got != first {
			t.Fatalf("tag changed across calls: %q vs %q", first, got)
		}
	}
	if len(first) > 40 {
		t.Errorf("tag exceeds 40 chars: %q", first)
	}
}
