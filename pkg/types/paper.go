// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SourceType records how a paper entered a session's corpus.
type SourceType string

const (
	SourceDiscovered SourceType = "discovered"
	SourceUploaded   SourceType = "uploaded"
)

// Paper holds the metadata and extracted text for one source in a session
// corpus. Papers are immutable once added; re-adding the same id replaces
// the record wholesale.
type Paper struct {
	// ID is unique within a session. Uploaded papers without an id are
	// assigned one on add.
	ID string `json:"id" yaml:"id"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// Authors lists author display names in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the paper abstract, if known.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Year is the publication year, zero if unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// Venue is the journal or conference, if known.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// CitationCount is the stored citation count, never negative.
	CitationCount int `json:"citation_count" yaml:"citation_count"`

	// SourceType is discovered or uploaded.
	SourceType SourceType `json:"source_type" yaml:"source_type"`

	// FullText is the normalized plain text extracted upstream. Empty when
	// extraction failed.
	FullText string `json:"full_text,omitempty" yaml:"full_text,omitempty"`

	// URL is the paper's landing page.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// PDFURL is a direct link to the PDF.
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`

	// Unindexable marks a paper with no usable text. The paper stays listed
	// but is skipped by retrieval.
	Unindexable bool `json:"unindexable,omitempty" yaml:"unindexable,omitempty"`
}

// Session identifies a research session. The engine trusts the caller for
// ownership; it only scopes corpora by ID and uses Title and Topic as the
// default query seed for drafts and metrics.
type Session struct {
	// ID scopes every corpus, history, and retrieval operation.
	ID string `json:"id" yaml:"id"`

	// Title is the session's display title.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Topic is the research topic statement.
	Topic string `json:"topic,omitempty" yaml:"topic,omitempty"`
}

// TopicText returns the combined title and topic used for topic-driven
// scoring. Falls back to a generic phrase when both are empty.
func (s Session) TopicText() string {
	switch {
	case s.Title != "" && s.Topic != "":
		return s.Title + " " + s.Topic
	case s.Title != "":
		return s.Title
	case s.Topic != "":
		return s.Topic
	}
	return "this research topic"
}
