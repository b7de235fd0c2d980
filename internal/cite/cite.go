// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cite renders session bibliographies. Formatting is a pure
// function of paper metadata: no model call, no network, and missing
// fields degrade to placeholders instead of erroring.
package cite

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/meshintel/corpus-engine/pkg/types"
)

// Style selects a bibliography format.
type Style string

const (
	StyleBibTeX Style = "bibtex"
	StyleAPA    Style = "apa"
	StyleMLA    Style = "mla"
	StyleIEEE   Style = "ieee"
)

// ErrUnknownStyle reports a style outside bibtex | apa | mla | ieee.
var ErrUnknownStyle = errors.New("unknown citation style")

// unknownAuthor is the placeholder for papers with no author metadata in
// the text styles. BibTeX omits the author field instead.
const unknownAuthor = "Unknown Author"

// Format renders a bibliography as one text block, entries separated by
// blank lines. Papers are deduplicated by id (first occurrence wins).
// BibTeX and IEEE keep input order; APA and MLA sort alphabetically by
// first-author surname, falling back to title.
func Format(papers []types.Paper, style Style) (string, error) {
	entries, err := Entries(papers, style)
	if err != nil {
		return "", err
	}
	return strings.Join(entries, "\n\n"), nil
}

// Entries renders one bibliography entry per paper.
func Entries(papers []types.Paper, style Style) ([]string, error) {
	papers = dedupe(papers)

	switch style {
	case StyleBibTeX:
		return formatBibTeX(papers), nil
	case StyleAPA:
		return formatAPA(sortedAlphabetical(papers)), nil
	case StyleMLA:
		return formatMLA(sortedAlphabetical(papers)), nil
	case StyleIEEE:
		return formatIEEE(papers), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStyle, style)
	}
}

func dedupe(papers []types.Paper) []types.Paper {
	seen := make(map[string]bool)
	out := make([]types.Paper, 0, len(papers))
	for _, p := range papers {
		if p.ID != "" {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
		}
		out = append(out, p)
	}
	return out
}

// sortedAlphabetical orders papers by first-author surname, falling back
// to title when a paper has no authors. The sort is stable so equal keys
// keep input order.
func sortedAlphabetical(papers []types.Paper) []types.Paper {
	out := append([]types.Paper(nil), papers...)
	sort.SliceStable(out, func(i, j int) bool {
		return sortKey(out[i]) < sortKey(out[j])
	})
	return out
}

func sortKey(p types.Paper) string {
	if len(p.Authors) > 0 {
		_, last := splitName(p.Authors[0])
		if last != "" {
			return strings.ToLower(last)
		}
	}
	return strings.ToLower(p.Title)
}

// splitName divides a "First Middle Last" name into its given names and
// surname. Single-word names are treated as a bare surname.
func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
	}
}

// initials renders given names as spaced initials: "Ada Mary" -> "A. M.".
func initials(first string) string {
	var parts []string
	for _, p := range strings.Fields(first) {
		parts = append(parts, strings.ToUpper(p[:1])+".")
	}
	return strings.Join(parts, " ")
}

// --- BibTeX ---

func bibtexKey(p types.Paper, used map[string]bool) string {
	last := "anon"
	if len(p.Authors) > 0 {
		if _, surname := splitName(p.Authors[0]); surname != "" {
			last = strings.ToLower(surname)
		}
	}

	year := "nd"
	if p.Year > 0 {
		year = strconv.Itoa(p.Year)
	}

	firstWord := "title"
	if fields := strings.Fields(p.Title); len(fields) > 0 {
		firstWord = strings.ToLower(fields[0])
	}

	base := last + year + firstWord
	key := base
	for i := 2; used[key]; i++ {
		key = base + strconv.Itoa(i)
	}
	used[key] = true
	return key
}

func formatBibTeX(papers []types.Paper) []string {
	entries := make([]string, 0, len(papers))
	used := make(map[string]bool)

	for _, p := range papers {
		lines := []string{
			fmt.Sprintf("@article{%s,", bibtexKey(p, used)),
			fmt.Sprintf("  title   = {%s},", p.Title),
		}
		if len(p.Authors) > 0 {
			lines = append(lines, fmt.Sprintf("  author  = {%s},", strings.Join(p.Authors, " and ")))
		}
		if p.Venue != "" {
			lines = append(lines, fmt.Sprintf("  journal = {%s},", p.Venue))
		}
		if p.Year > 0 {
			lines = append(lines, fmt.Sprintf("  year    = {%d},", p.Year))
		}
		if p.URL != "" {
			lines = append(lines, fmt.Sprintf("  url     = {%s},", p.URL))
		}
		lines = append(lines, "}")
		entries = append(entries, strings.Join(lines, "\n"))
	}
	return entries
}

// --- APA ---

// authorsAPA renders "Last, F. M., & Last, F. M.".
func authorsAPA(authors []string) string {
	var formatted []string
	for _, name := range authors {
		first, last := splitName(name)
		if last == "" {
			continue
		}
		if init := initials(first); init != "" {
			formatted = append(formatted, last+", "+init)
		} else {
			formatted = append(formatted, last)
		}
	}

	switch len(formatted) {
	case 0:
		return ""
	case 1:
		return formatted[0]
	default:
		return strings.Join(formatted[:len(formatted)-1], ", ") + ", & " + formatted[len(formatted)-1]
	}
}

func formatAPA(papers []types.Paper) []string {
	entries := make([]string, 0, len(papers))
	for _, p := range papers {
		authors := authorsAPA(p.Authors)
		if authors == "" {
			authors = unknownAuthor
		}
		if !strings.HasSuffix(authors, ".") {
			authors += "."
		}

		year := "(n.d.)."
		if p.Year > 0 {
			year = fmt.Sprintf("(%d).", p.Year)
		}

		title := strings.TrimSuffix(p.Title, ".")

		entry := authors + " " + year + " " + title + "."
		if p.Venue != "" {
			entry += " " + p.Venue + "."
		}
		if p.URL != "" {
			entry += " " + p.URL
		}
		entries = append(entries, entry)
	}
	return entries
}

// --- MLA ---

// authorsMLA renders "Last, First", "Last, First, and First Last", or
// "Last, First, et al." for three or more authors.
func authorsMLA(authors []string) string {
	if len(authors) == 0 {
		return ""
	}

	first, last := splitName(authors[0])
	main := authors[0]
	if first != "" && last != "" {
		main = last + ", " + first
	}

	switch len(authors) {
	case 1:
		return main
	case 2:
		return main + ", and " + authors[1]
	default:
		return main + ", et al."
	}
}

func formatMLA(papers []types.Paper) []string {
	entries := make([]string, 0, len(papers))
	for _, p := range papers {
		authors := authorsMLA(p.Authors)
		if authors == "" {
			authors = unknownAuthor
		}

		title := strings.TrimSuffix(p.Title, ".")

		year := "n.d."
		if p.Year > 0 {
			year = strconv.Itoa(p.Year)
		}

		pieces := []string{authors + ".", `"` + title + `."`}
		if p.Venue != "" {
			pieces = append(pieces, p.Venue+",")
		}
		pieces = append(pieces, year+".")
		if p.URL != "" {
			pieces = append(pieces, p.URL)
		}
		entries = append(entries, strings.Join(pieces, " "))
	}
	return entries
}

// --- IEEE ---

// authorsIEEE renders "F. M. Last", joining multiple authors with commas
// and "and" before the final one.
func authorsIEEE(authors []string) string {
	if len(authors) == 0 {
		return ""
	}

	format := func(name string) string {
		first, last := splitName(name)
		if last == "" {
			return name
		}
		if init := initials(first); init != "" {
			return init + " " + last
		}
		return last
	}

	if len(authors) == 1 {
		return format(authors[0])
	}

	parts := make([]string, 0, len(authors))
	for _, name := range authors[:len(authors)-1] {
		parts = append(parts, format(name))
	}
	parts = append(parts, "and "+format(authors[len(authors)-1]))
	return strings.Join(parts, ", ")
}

func formatIEEE(papers []types.Paper) []string {
	entries := make([]string, 0, len(papers))
	for i, p := range papers {
		authors := authorsIEEE(p.Authors)
		if authors == "" {
			authors = unknownAuthor
		}

		title := strings.TrimSuffix(p.Title, ".")

		year := "n.d."
		if p.Year > 0 {
			year = strconv.Itoa(p.Year)
		}

		parts := []string{fmt.Sprintf("[%d]", i+1), authors + ","}
		if title != "" {
			parts = append(parts, `"`+title+`,"`)
		}
		if p.Venue != "" {
			parts = append(parts, p.Venue+",")
		}
		parts = append(parts, year+".")
		if p.URL != "" {
			parts = append(parts, p.URL)
		}
		entries = append(entries, strings.Join(parts, " "))
	}
	return entries
}
