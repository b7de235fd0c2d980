// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"regexp"
	"sort"
	"strings"

	"github.com/meshintel/corpus-engine/pkg/types"
)

// citationPattern matches inline citation markers: [Tag] or [Tag1; Tag2].
var citationPattern = regexp.MustCompile(`\[([^\[\]]+)\]`)

// resolveCitations validates the bracket markers in model output against
// the excerpts that were supplied. Markers naming an excerpt tag become
// citations; markers naming nothing are stripped from the text. Citations
// come back in order of first appearance, each carrying the chunk
// sequences supplied under its tag.
func resolveCitations(text string, excerpts []Excerpt) (string, []types.Citation) {
	byTag := make(map[string]*types.Citation)
	for _, e := range excerpts {
		c, ok := byTag[e.Tag]
		if !ok {
			byTag[e.Tag] = &types.Citation{
				PaperID:   e.PaperID,
				Tag:       e.Tag,
				ChunkSeqs: []int{e.Seq},
			}
			continue
		}
		c.ChunkSeqs = append(c.ChunkSeqs, e.Seq)
	}

	var (
		citations []types.Citation
		cited     = make(map[string]bool)
	)

	cleaned := citationPattern.ReplaceAllStringFunc(text, func(marker string) string {
		inner := marker[1 : len(marker)-1]
		var kept []string
		for _, part := range strings.Split(inner, ";") {
			tag := strings.TrimSpace(part)
			c, known := byTag[tag]
			if !known {
				continue
			}
			kept = append(kept, tag)
			if !cited[tag] {
				cited[tag] = true
				seqs := append([]int(nil), c.ChunkSeqs...)
				sort.Ints(seqs)
				citations = append(citations, types.Citation{
					PaperID:   c.PaperID,
					Tag:       c.Tag,
					ChunkSeqs: seqs,
				})
			}
		}
		if len(kept) == 0 {
			return ""
		}
		return "[" + strings.Join(kept, "; ") + "]"
	})

	// Stripping markers can leave doubled spaces or space before
	// punctuation.
	cleaned = strings.ReplaceAll(cleaned, "  ", " ")
	cleaned = strings.ReplaceAll(cleaned, " .", ".")
	cleaned = strings.ReplaceAll(cleaned, " ,", ",")
	cleaned = strings.TrimSpace(cleaned)

	return cleaned, citations
}
