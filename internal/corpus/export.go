// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"
)

// ExportEntry holds one paper's metadata plus its index footprint.
type ExportEntry struct {
	ID            string   `json:"id" yaml:"id"`
	Title         string   `json:"title" yaml:"title"`
	Authors       []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Abstract      string   `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Year          int      `json:"year,omitempty" yaml:"year,omitempty"`
	Venue         string   `json:"venue,omitempty" yaml:"venue,omitempty"`
	URL           string   `json:"url,omitempty" yaml:"url,omitempty"`
	SourceType    string   `json:"source_type" yaml:"source_type"`
	CitationCount int      `json:"citation_count" yaml:"citation_count"`
	Unindexable   bool     `json:"unindexable,omitempty" yaml:"unindexable,omitempty"`
	ChunkCount    int      `json:"chunk_count" yaml:"chunk_count"`
}

// ExportYAML writes the session's papers to w as YAML, in corpus order.
// Full text is not included; exports describe the corpus, they do not
// round-trip it.
func (s *Store) ExportYAML(ctx context.Context, sessionID string, w io.Writer) error {
	entries, err := s.exportEntries(ctx, sessionID)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// ExportJSON writes the session's papers to w as indented JSON.
func (s *Store) ExportJSON(ctx context.Context, sessionID string, w io.Writer) error {
	entries, err := s.exportEntries(ctx, sessionID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err = w.Write([]byte("\n"))
	return err
}

func (s *Store) exportEntries(ctx context.Context, sessionID string) ([]ExportEntry, error) {
	papers, err := s.Papers(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing papers for export: %w", err)
	}

	counts := make(map[string]int, len(papers))
	rows, err := s.db.QueryContext(ctx,
		`SELECT paper_id, COUNT(*) FROM chunks WHERE session_id = ? GROUP BY paper_id`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("counting chunks for export: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var paperID string
		var n int
		if err := rows.Scan(&paperID, &n); err != nil {
			return nil, err
		}
		counts[paperID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	entries := make([]ExportEntry, len(papers))
	for i, p := range papers {
		entries[i] = ExportEntry{
			ID:            p.ID,
			Title:         p.Title,
			Authors:       p.Authors,
			Abstract:      p.Abstract,
			Year:          p.Year,
			Venue:         p.Venue,
			URL:           p.URL,
			SourceType:    string(p.SourceType),
			CitationCount: p.CitationCount,
			Unindexable:   p.Unindexable,
			ChunkCount:    counts[p.ID],
		}
	}
	return entries, nil
}
