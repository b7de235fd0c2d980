// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// PaperMetrics holds the comparative scores for one paper against the
// session topic. All fields are recomputed on demand; none is persisted.
type PaperMetrics struct {
	// PaperID identifies the paper.
	PaperID string `json:"paper_id" yaml:"paper_id"`

	// Title is carried for display.
	Title string `json:"title" yaml:"title"`

	// Relevance is the count of distinct topic tokens present in the
	// paper's title+abstract token set.
	Relevance int `json:"relevance" yaml:"relevance"`

	// RelevanceScore is Relevance normalized to 0-100 against the best
	// paper in the corpus. Zero for every paper when no paper matches.
	RelevanceScore int `json:"relevance_score" yaml:"relevance_score"`

	// KeywordHits is the total whole-word occurrences of topic tokens in
	// the paper's text.
	KeywordHits int `json:"keyword_hits" yaml:"keyword_hits"`

	// Citations is the stored citation count, clamped to >= 0.
	Citations int `json:"citations" yaml:"citations"`
}
