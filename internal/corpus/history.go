// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/meshintel/corpus-engine/pkg/types"
)

// AppendTurn records one conversation turn at the end of a session's
// history log and returns the assigned sequence number. Sequence numbers
// are contiguous per session starting at 1.
func (s *Store) AppendTurn(ctx context.Context, sessionID string, role types.Role, content string, citedPapers []string) (int, error) {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	var citedJSON []byte
	if len(citedPapers) > 0 {
		citedJSON, _ = json.Marshal(citedPapers)
	}

	var seq int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM history WHERE session_id = ?`,
		sessionID,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("allocating turn sequence: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO history (session_id, seq, role, content, cited_papers, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, seq, string(role), content, string(citedJSON),
		time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return 0, fmt.Errorf("inserting turn: %w", err)
	}

	return seq, nil
}

// History returns a session's conversation turns in order. When lastN > 0,
// only the most recent lastN turns are returned (still oldest first).
func (s *Store) History(ctx context.Context, sessionID string, lastN int) ([]types.Turn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, role, content, cited_papers, created_at
		 FROM history WHERE session_id = ? ORDER BY seq`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var turns []types.Turn
	for rows.Next() {
		var (
			t         types.Turn
			role      string
			citedJSON string
			createdAt string
		)
		if err := rows.Scan(&t.Seq, &role, &t.Content, &citedJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		t.Role = types.Role(role)
		if citedJSON != "" {
			json.Unmarshal([]byte(citedJSON), &t.CitedPapers)
		}
		if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
			t.CreatedAt = ts
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if lastN > 0 && len(turns) > lastN {
		turns = turns[len(turns)-lastN:]
	}
	return turns, nil
}
