// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Role identifies the author of a chat turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry in a session's append-only chat history.
type Turn struct {
	// Seq is the monotonic per-session sequence number.
	Seq int `json:"seq" yaml:"seq"`

	// Role is user or assistant.
	Role Role `json:"role" yaml:"role"`

	// Content is the turn text.
	Content string `json:"content" yaml:"content"`

	// CitedPapers lists paper ids cited by an assistant turn.
	CitedPapers []string `json:"cited_papers,omitempty" yaml:"cited_papers,omitempty"`

	// CreatedAt is the time the turn was recorded.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// AnswerState distinguishes a grounded answer from an explicit refusal.
// Refusal is a valid outcome, not an error: the corpus holds no evidence
// for the question.
type AnswerState string

const (
	AnswerGrounded AnswerState = "grounded"
	AnswerRefused  AnswerState = "refused"
)

// Citation attributes part of an answer to chunks of one paper.
type Citation struct {
	// PaperID is the cited paper.
	PaperID string `json:"paper_id" yaml:"paper_id"`

	// Tag is the bracket marker used in the answer text, e.g.
	// "Eeg-Alzheimer-2019".
	Tag string `json:"tag" yaml:"tag"`

	// ChunkSeqs lists the sequence numbers of the chunks supplied to the
	// model under this tag.
	ChunkSeqs []int `json:"chunk_seqs" yaml:"chunk_seqs"`
}

// GroundedAnswer is the result of answering a question against a session
// corpus. Every citation references a chunk that was part of the retrieval
// result supplied to the generation call.
type GroundedAnswer struct {
	// State is grounded or refused.
	State AnswerState `json:"state" yaml:"state"`

	// Text is the answer, or the fixed refusal text.
	Text string `json:"text" yaml:"text"`

	// Citations is ordered by first appearance in Text. Empty when refused.
	Citations []Citation `json:"citations,omitempty" yaml:"citations,omitempty"`
}
