// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"sort"
	"strconv"
	"strings"

	"github.com/meshintel/corpus-engine/pkg/types"
)

// stopwords are dropped during query and chunk tokenization. The list mixes
// general function words with terms so common in an academic corpus that
// they carry no ranking signal.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "of": {}, "in": {}, "on": {}, "for": {}, "to": {},
	"a": {}, "an": {}, "with": {}, "using": {}, "used": {}, "based": {},
	"approach": {}, "method": {}, "methods": {}, "study": {}, "paper": {},
	"results": {}, "from": {}, "into": {}, "via": {}, "towards": {},
	"toward": {}, "new": {}, "analysis": {}, "system": {}, "framework": {},
	"application": {}, "applications": {}, "model": {}, "models": {},
	"deep": {}, "learning": {}, "machine": {}, "neural": {}, "network": {},
	"networks": {}, "data": {}, "dataset": {}, "datasets": {},
}

const minTokenLen = 3

// Tokenize lowercases text, strips everything but letters, digits, and
// hyphens, and returns the set of tokens of length >= 3 that are not
// stopwords.
func Tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	if text == "" {
		return tokens
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}

	for _, tok := range strings.Fields(b.String()) {
		if len(tok) < minTokenLen {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		tokens[tok] = struct{}{}
	}
	return tokens
}

// overlapScore is the fraction of query tokens present in the candidate
// token set. Zero when the query has no tokens.
func overlapScore(query, candidate map[string]struct{}) float64 {
	if len(query) == 0 {
		return 0
	}
	hits := 0
	for tok := range query {
		if _, ok := candidate[tok]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(query))
}

// CitationTag builds a human-readable bracket tag for a paper, e.g.
// "Alzheimer-Eeg-2019". It prefers the first two title keywords plus the
// year, falls back to the first author's surname, then to a generic tag.
// Tags are what the generation model reuses verbatim to cite a source.
func CitationTag(p types.Paper) string {
	year := "n.d."
	if p.Year > 0 {
		year = strconv.Itoa(p.Year)
	}

	keywords := make([]string, 0, 8)
	for tok := range Tokenize(p.Title) {
		keywords = append(keywords, tok)
	}
	sort.Strings(keywords)

	var tag string
	switch {
	case len(keywords) > 0:
		if len(keywords) > 2 {
			keywords = keywords[:2]
		}
		for i, kw := range keywords {
			keywords[i] = capitalize(kw)
		}
		tag = strings.Join(keywords, "-") + "-" + year
	case len(p.Authors) > 0:
		fields := strings.Fields(p.Authors[0])
		surname := p.Authors[0]
		if len(fields) > 0 {
			surname = fields[len(fields)-1]
		}
		tag = surname + year
	default:
		tag = "Source-" + year
	}

	if len(tag) > 40 {
		tag = tag[:40]
	}
	return tag
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

