// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DraftStyle selects the long-form document shape.
type DraftStyle string

const (
	StyleSummary          DraftStyle = "summary"
	StyleLiteratureReview DraftStyle = "literature_review"
)

// DocumentSection is one generated section of a draft.
type DocumentSection struct {
	// Title is the section heading.
	Title string `json:"title" yaml:"title"`

	// Text is the generated body, with inline citation tags.
	Text string `json:"text" yaml:"text"`

	// Citations attributes the section's claims to corpus papers.
	Citations []Citation `json:"citations,omitempty" yaml:"citations,omitempty"`
}

// Document is a composed draft. It carries no server-side lock; editing
// after composition is the caller's concern.
type Document struct {
	// SessionID is the session the draft was composed from.
	SessionID string `json:"session_id" yaml:"session_id"`

	// Style is summary or literature_review.
	Style DraftStyle `json:"style" yaml:"style"`

	// Sections in fixed assembly order.
	Sections []DocumentSection `json:"sections" yaml:"sections"`
}

// Markdown renders the document as Markdown with level-one section headings.
func (d Document) Markdown() string {
	out := ""
	for i, s := range d.Sections {
		if i > 0 {
			out += "\n\n"
		}
		if s.Title != "" {
			out += "# " + s.Title + "\n\n"
		}
		out += s.Text
	}
	return out
}
