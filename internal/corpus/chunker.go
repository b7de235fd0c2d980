// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"strings"
	"unicode/utf8"

	"github.com/meshintel/corpus-engine/pkg/types"
)

const (
	defaultMaxChunkChars = 1600
	defaultChunkOverlap  = 200
)

// NormalizeText canonicalizes whitespace: line endings become \n, runs of
// spaces and tabs collapse to one space, trailing spaces are stripped, and
// runs of blank lines collapse to a single blank line (one paragraph
// break). Chunk offsets are byte positions into this normalized form.
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}

	var out []string
	blank := true // swallow leading blank lines
	for _, line := range lines {
		if line == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	// Drop a trailing blank line left by the loop.
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}

// splitChunks slices normalized text into chunks of at most maxChars bytes,
// where each chunk after the first re-includes the previous chunk's tail as
// overlap. Cuts prefer paragraph boundaries, then sentence boundaries, and
// only fall back to a hard cut inside a sentence that exceeds the budget.
//
// Chunk text is always an exact substring of the input: trimming the
// overlapped prefix of each chunk and concatenating reconstructs the input
// byte for byte.
func splitChunks(text string, maxChars, overlap int) []types.Chunk {
	if maxChars <= 0 {
		maxChars = defaultMaxChunkChars
	}
	if overlap < 0 || overlap >= maxChars {
		overlap = defaultChunkOverlap
		if overlap >= maxChars {
			overlap = maxChars / 8
		}
	}
	if text == "" {
		return nil
	}

	// Partition into segments of at most maxChars-overlap so that the
	// overlap extension keeps every chunk within maxChars.
	segment := maxChars - overlap

	var cuts []int
	for pos := 0; pos < len(text); {
		cut := nextCut(text, pos, segment)
		cuts = append(cuts, cut)
		pos = cut
	}

	chunks := make([]types.Chunk, 0, len(cuts))
	start := 0
	for seq, end := range cuts {
		if seq > 0 {
			start = cuts[seq-1] - overlap
			if start < 0 {
				start = 0
			}
			// Never split a UTF-8 sequence.
			for start > 0 && !utf8.RuneStart(text[start]) {
				start++
			}
		}
		chunks = append(chunks, types.Chunk{
			Seq:   seq,
			Start: start,
			End:   end,
			Text:  text[start:end],
		})
	}
	return chunks
}

// nextCut returns the end offset of the segment starting at start. It takes
// the last paragraph boundary within budget, then the last sentence
// boundary, then a hard cut at the budget (aligned to a rune boundary).
func nextCut(text string, start, budget int) int {
	limit := start + budget
	if limit >= len(text) {
		return len(text)
	}

	if c := lastParagraphCut(text, start, limit); c > start {
		return c
	}
	if c := lastSentenceCut(text, start, limit); c > start {
		return c
	}

	for limit > start+1 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return limit
}

// lastParagraphCut finds the last blank-line break in (start, limit] and
// returns the offset just past it, so the next segment begins at a
// paragraph start. Returns start when there is none.
func lastParagraphCut(text string, start, limit int) int {
	idx := strings.LastIndex(text[start:limit], "\n\n")
	if idx < 0 {
		return start
	}
	return start + idx + 2
}

// lastSentenceCut finds the last sentence end in (start, limit] and returns
// the offset of the following sentence start. Returns start when there is
// none.
func lastSentenceCut(text string, start, limit int) int {
	for i := limit - 2; i > start; i-- {
		switch text[i] {
		case '.', '!', '?':
			next := text[i+1]
			if next == ' ' || next == '\n' {
				return i + 2
			}
		}
	}
	return start
}

// trimOverlap removes the overlapped prefix of chunk from its text given
// the previous chunk's end offset. Used when reassembling chunk sequences.
func trimOverlap(prevEnd int, c types.Chunk) string {
	if prevEnd <= c.Start {
		return c.Text
	}
	drop := prevEnd - c.Start
	if drop >= len(c.Text) {
		return ""
	}
	return c.Text[drop:]
}

// Reassemble concatenates a paper's chunks in sequence order with overlaps
// removed, reproducing the normalized source text.
func Reassemble(chunks []types.Chunk) string {
	var b strings.Builder
	prevEnd := 0
	for _, c := range chunks {
		b.WriteString(trimOverlap(prevEnd, c))
		prevEnd = c.End
	}
	return b.String()
}
