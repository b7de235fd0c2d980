// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Chunk is a bounded contiguous span of a paper's normalized text used as a
// retrieval unit. Chunks are never mutated after creation; removal deletes
// them and re-indexing recreates them.
type Chunk struct {
	// PaperID references the owning paper within the session.
	PaperID string `json:"paper_id" yaml:"paper_id"`

	// Seq is the chunk's position within the paper, starting at 0.
	Seq int `json:"seq" yaml:"seq"`

	// Start and End are byte offsets into the paper's normalized text.
	// Text is exactly FullText[Start:End]. Consecutive chunks overlap:
	// chunk n+1 starts before chunk n ends by the configured overlap.
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`

	// Text is the chunk content.
	Text string `json:"text" yaml:"text"`
}
