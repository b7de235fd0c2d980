// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/meshintel/corpus-engine/internal/corpus"
	"github.com/meshintel/corpus-engine/pkg/types"
)

// answerSystemTmpl is the system prompt for grounded question answering.
// The model may only use the supplied excerpts and must cite them with
// their exact bracket tags.
var answerSystemTmpl = template.Must(template.New("answer-system").Parse(`You are a research assistant helping with a literature study on {{.Topic}}.

Answer the user's question using ONLY the source excerpts provided below. Do not use outside knowledge. If the excerpts do not contain the information needed, say so plainly instead of guessing.

Every claim in your answer must cite the excerpt it came from, using the exact bracket tag shown with that excerpt, e.g. {{.ExampleTag}}. Do not invent tags and do not alter the tags' spelling.

Source excerpts:

{{.Excerpts}}`))

// sectionSystemTmpl is the system prompt for draft section generation. Same
// grounding rules, different task framing.
var sectionSystemTmpl = template.Must(template.New("section-system").Parse(`You are a research assistant writing part of a document about {{.Topic}}.

Write using ONLY the source excerpts provided below. Do not use outside knowledge. Cite each excerpt you draw on with its exact bracket tag, e.g. {{.ExampleTag}}.

Source excerpts:

{{.Excerpts}}`))

// Excerpt is one retrieved chunk prepared for a prompt: the citation tag
// the model must echo, the paper metadata, and the chunk text.
type Excerpt struct {
	Tag     string
	Title   string
	Year    int
	Authors []string
	PaperID string
	Seq     int
	Text    string
}

// buildExcerpts assigns citation tags to retrieved chunks. All chunks of
// one paper share a tag; tags are uniquified with numeric suffixes when two
// papers would collide.
func buildExcerpts(chunks []corpus.ScoredChunk) []Excerpt {
	tagByPaper := make(map[string]string)
	used := make(map[string]bool)

	excerpts := make([]Excerpt, 0, len(chunks))
	for _, c := range chunks {
		tag, ok := tagByPaper[c.PaperID]
		if !ok {
			tag = corpus.CitationTag(types.Paper{
				Title:   c.PaperTitle,
				Authors: c.PaperAuthors,
				Year:    c.PaperYear,
			})
			base := tag
			for n := 2; used[tag]; n++ {
				tag = fmt.Sprintf("%s-%d", base, n)
			}
			used[tag] = true
			tagByPaper[c.PaperID] = tag
		}
		excerpts = append(excerpts, Excerpt{
			Tag:     tag,
			Title:   c.PaperTitle,
			Year:    c.PaperYear,
			Authors: c.PaperAuthors,
			PaperID: c.PaperID,
			Seq:     c.Seq,
			Text:    c.Text,
		})
	}
	return excerpts
}

// renderExcerpts formats excerpt blocks for the prompt: a header line with
// the tag, title, and year, an author line, then the chunk text.
func renderExcerpts(excerpts []Excerpt) string {
	var b strings.Builder
	for i, e := range excerpts {
		if i > 0 {
			b.WriteString("\n\n")
		}
		year := "n.d."
		if e.Year > 0 {
			year = fmt.Sprintf("%d", e.Year)
		}
		fmt.Fprintf(&b, "[%s] %s (%s)\n", e.Tag, e.Title, year)
		if len(e.Authors) > 0 {
			b.WriteString(strings.Join(e.Authors, ", "))
			b.WriteString("\n")
		}
		b.WriteString(e.Text)
	}
	return b.String()
}

// renderSystemPrompt executes a system prompt template for a topic and
// excerpt set.
func renderSystemPrompt(tmpl *template.Template, topic string, excerpts []Excerpt) (string, error) {
	example := "[Source-n.d.]"
	if len(excerpts) > 0 {
		example = "[" + excerpts[0].Tag + "]"
	}

	var buf bytes.Buffer
	err := tmpl.Execute(&buf, struct {
		Topic      string
		ExampleTag string
		Excerpts   string
	}{
		Topic:      topic,
		ExampleTag: example,
		Excerpts:   renderExcerpts(excerpts),
	})
	if err != nil {
		return "", fmt.Errorf("rendering system prompt: %w", err)
	}
	return buf.String(), nil
}

// renderUserPrompt prepends recent conversation turns to the question so
// follow-up questions resolve against what was already discussed.
func renderUserPrompt(history []types.Turn, question string) string {
	if len(history) == 0 {
		return question
	}

	var b strings.Builder
	b.WriteString("Conversation so far:\n")
	for _, t := range history {
		role := "User"
		if t.Role == types.RoleAssistant {
			role = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, t.Content)
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	return b.String()
}
