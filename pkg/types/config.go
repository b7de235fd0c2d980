package types

import "time"

// CorpusConfig holds settings for the corpus store and chunker.
type CorpusConfig struct {
	// DataDir is the directory holding the corpus database (corpus.db).
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// MaxChunkChars bounds a chunk's length in bytes of normalized text
	// (default 1600, roughly 400 tokens).
	MaxChunkChars int `json:"max_chunk_chars" yaml:"max_chunk_chars"`

	// ChunkOverlap is how many bytes of the previous chunk's tail are
	// re-included at the start of the next chunk (default 200).
	ChunkOverlap int `json:"chunk_overlap" yaml:"chunk_overlap"`
}

// RetrievalConfig holds settings for chunk retrieval.
type RetrievalConfig struct {
	// DefaultK is the result count when the caller passes k <= 0 (default 8).
	DefaultK int `json:"default_k" yaml:"default_k"`

	// MaxResults is the system-enforced upper bound on k (default 12).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// MaxPerPaper caps chunks returned from a single paper so one long
	// paper cannot crowd out the rest (default 3).
	MaxPerPaper int `json:"max_per_paper" yaml:"max_per_paper"`

	// MinScore is the minimum relevance a chunk needs to be citation
	// eligible (default 0.1).
	MinScore float64 `json:"min_score" yaml:"min_score"`
}

// AIConfig holds shared settings for calls to the generation model API.
type AIConfig struct {
	// Model is the model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the model API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries bounds retries on transient API failures (default 1).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// GenerationConfig holds settings for grounded answer generation.
type GenerationConfig struct {
	AIConfig `yaml:",inline"`

	// MaxContextChunks is the top-k retrieved for a question (default 8).
	MaxContextChunks int `json:"max_context_chunks" yaml:"max_context_chunks"`

	// HistoryWindow is how many prior turns feed the prompt (default 6).
	HistoryWindow int `json:"history_window" yaml:"history_window"`

	// Timeout bounds a single model call (default 90s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// DraftConfig holds settings for draft composition.
type DraftConfig struct {
	// ChunkBudget caps the total chunks sampled for a summary draft
	// (default 24).
	ChunkBudget int `json:"chunk_budget" yaml:"chunk_budget"`

	// MaxThemes caps the thematic sections of a literature review
	// (default 4).
	MaxThemes int `json:"max_themes" yaml:"max_themes"`
}

// EngineConfig groups all engine settings.
type EngineConfig struct {
	Corpus     CorpusConfig     `json:"corpus" yaml:"corpus"`
	Retrieval  RetrievalConfig  `json:"retrieval" yaml:"retrieval"`
	Generation GenerationConfig `json:"generation" yaml:"generation"`
	Draft      DraftConfig      `json:"draft" yaml:"draft"`
}
