// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package corpus owns the per-session paper corpus: the SQLite store, the
// chunk index with FTS5 full-text recall, chunk retrieval, and the
// append-only chat history log. All operations are scoped by session id;
// add and remove on the same session are serialized so retrieval sees
// either the pre- or post-mutation corpus, never a partial one.
package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/meshintel/corpus-engine/pkg/types"
)

const dbFile = "corpus.db"

// ErrEmptyCorpus reports an operation that needs at least one paper in the
// session.
var ErrEmptyCorpus = errors.New("no papers in this session yet")

// ErrPaperNotFound reports a remove for a paper id not in the session.
var ErrPaperNotFound = errors.New("paper not found in session")

// Store manages session corpora in a SQLite database.
type Store struct {
	db       *sql.DB
	cfg      types.CorpusConfig
	retr     types.RetrievalConfig
	embedder Embedder
	logger   *zap.Logger

	mu       sync.Mutex
	sessions map[string]*sync.Mutex
}

// Option configures optional Store collaborators.
type Option func(*Store)

// WithEmbedder enables semantic blending during retrieval.
func WithEmbedder(e Embedder) Option {
	return func(s *Store) { s.embedder = e }
}

// WithLogger attaches a logger. The default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore opens or creates the corpus database at cfg.DataDir/corpus.db
// and creates the schema if it does not exist.
func NewStore(cfg types.CorpusConfig, retr types.RetrievalConfig, opts ...Option) (*Store, error) {
	if cfg.MaxChunkChars <= 0 {
		cfg.MaxChunkChars = defaultMaxChunkChars
	}
	if cfg.ChunkOverlap <= 0 {
		cfg.ChunkOverlap = defaultChunkOverlap
	}
	if retr.DefaultK <= 0 {
		retr.DefaultK = 8
	}
	if retr.MaxResults <= 0 {
		retr.MaxResults = 12
	}
	if retr.MaxPerPaper <= 0 {
		retr.MaxPerPaper = 3
	}
	if retr.MinScore <= 0 {
		retr.MinScore = 0.1
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:       db,
		cfg:      cfg,
		retr:     retr,
		logger:   zap.NewNop(),
		sessions: make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			session_id TEXT NOT NULL,
			id TEXT NOT NULL,
			title TEXT,
			authors TEXT,
			abstract TEXT,
			year INTEGER,
			venue TEXT,
			citation_count INTEGER NOT NULL DEFAULT 0,
			source_type TEXT,
			full_text TEXT,
			url TEXT,
			pdf_url TEXT,
			unindexable INTEGER NOT NULL DEFAULT 0,
			position INTEGER NOT NULL,
			PRIMARY KEY (session_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS chunks (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			paper_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			start_off INTEGER NOT NULL,
			end_off INTEGER NOT NULL,
			text TEXT NOT NULL,
			UNIQUE (session_id, paper_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_session ON chunks(session_id)`,
		`CREATE TABLE IF NOT EXISTS history (
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			cited_papers TEXT,
			created_at TEXT NOT NULL,
			PRIMARY KEY (session_id, seq)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='chunks_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE chunks_fts USING fts5(text, content=chunks, content_rowid=rowid)`,
			`CREATE TRIGGER chunks_ai AFTER INSERT ON chunks BEGIN
				INSERT INTO chunks_fts(rowid, text) VALUES (new.rowid, new.text);
			END`,
			`CREATE TRIGGER chunks_ad AFTER DELETE ON chunks BEGIN
				INSERT INTO chunks_fts(chunks_fts, rowid, text) VALUES('delete', old.rowid, old.text);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// sessionLock returns the mutex serializing mutations for one session.
func (s *Store) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.sessions[sessionID]
	if !ok {
		m = &sync.Mutex{}
		s.sessions[sessionID] = m
	}
	return m
}

// AddSummary holds the outcome of one batch add.
type AddSummary struct {
	// Added counts papers new to the session.
	Added int

	// Replaced counts papers whose id already existed and were re-indexed.
	Replaced int

	// Unindexable counts added papers with no usable text.
	Unindexable int

	// IDs lists the stored paper ids in input order, including ids
	// assigned to uploads.
	IDs []string
}

// AddPapers adds a batch of papers to a session's corpus and indexes them.
// Identical ids within the batch are collapsed to the first occurrence.
// Re-adding an existing id replaces its metadata and chunks wholesale.
// Papers without an id are treated as uploads and assigned one.
func (s *Store) AddPapers(ctx context.Context, sessionID string, papers []types.Paper) (AddSummary, error) {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	var summary AddSummary

	seen := make(map[string]bool)
	batch := make([]types.Paper, 0, len(papers))
	for _, p := range papers {
		if p.ID == "" {
			p.ID = "upload-" + uuid.NewString()
			if p.SourceType == "" {
				p.SourceType = types.SourceUploaded
			}
		}
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		if p.SourceType == "" {
			p.SourceType = types.SourceDiscovered
		}
		if p.CitationCount < 0 {
			p.CitationCount = 0
		}
		batch = append(batch, p)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return summary, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range batch {
		p := &batch[i]

		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT count(*) FROM papers WHERE session_id = ? AND id = ?`,
			sessionID, p.ID,
		).Scan(&exists)
		if err != nil {
			return summary, fmt.Errorf("checking paper %s: %w", p.ID, err)
		}

		if exists > 0 {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM chunks WHERE session_id = ? AND paper_id = ?`,
				sessionID, p.ID,
			); err != nil {
				return summary, fmt.Errorf("deleting stale chunks for %s: %w", p.ID, err)
			}
			summary.Replaced++
		} else {
			summary.Added++
		}

		chunks, unindexable := s.chunkPaper(p)
		if unindexable {
			summary.Unindexable++
		}
		p.Unindexable = unindexable

		authorsJSON, _ := json.Marshal(p.Authors)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO papers (session_id, id, title, authors, abstract, year, venue,
				citation_count, source_type, full_text, url, pdf_url, unindexable, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
				COALESCE((SELECT position FROM papers WHERE session_id = ?1 AND id = ?2),
					(SELECT COALESCE(MAX(position), 0) + 1 FROM papers WHERE session_id = ?1)))
			 ON CONFLICT(session_id, id) DO UPDATE SET
				title=excluded.title, authors=excluded.authors, abstract=excluded.abstract,
				year=excluded.year, venue=excluded.venue, citation_count=excluded.citation_count,
				source_type=excluded.source_type, full_text=excluded.full_text,
				url=excluded.url, pdf_url=excluded.pdf_url, unindexable=excluded.unindexable`,
			sessionID, p.ID, p.Title, string(authorsJSON), p.Abstract, p.Year, p.Venue,
			p.CitationCount, string(p.SourceType), p.FullText, p.URL, p.PDFURL, boolToInt(unindexable),
		); err != nil {
			return summary, fmt.Errorf("inserting paper %s: %w", p.ID, err)
		}

		if len(chunks) > 0 {
			stmt, err := tx.PrepareContext(ctx,
				`INSERT INTO chunks (session_id, paper_id, seq, start_off, end_off, text)
				 VALUES (?, ?, ?, ?, ?, ?)`)
			if err != nil {
				return summary, fmt.Errorf("preparing chunk insert: %w", err)
			}
			for _, c := range chunks {
				if _, err := stmt.ExecContext(ctx,
					sessionID, p.ID, c.Seq, c.Start, c.End, c.Text,
				); err != nil {
					stmt.Close()
					return summary, fmt.Errorf("inserting chunk %s/%d: %w", p.ID, c.Seq, err)
				}
			}
			stmt.Close()
		}

		summary.IDs = append(summary.IDs, p.ID)
	}

	if err := tx.Commit(); err != nil {
		return summary, fmt.Errorf("committing add: %w", err)
	}

	s.logger.Info("papers added",
		zap.String("session", sessionID),
		zap.Int("added", summary.Added),
		zap.Int("replaced", summary.Replaced),
		zap.Int("unindexable", summary.Unindexable))

	return summary, nil
}

// chunkPaper derives a paper's chunks. Papers without full text fall back
// to a single title+abstract chunk; papers with neither are unindexable.
func (s *Store) chunkPaper(p *types.Paper) ([]types.Chunk, bool) {
	text := NormalizeText(p.FullText)
	if text != "" {
		p.FullText = text
		chunks := splitChunks(text, s.cfg.MaxChunkChars, s.cfg.ChunkOverlap)
		for i := range chunks {
			chunks[i].PaperID = p.ID
		}
		return chunks, false
	}

	fallback := NormalizeText(p.Title + "\n\n" + p.Abstract)
	if fallback == "" {
		return nil, true
	}
	return []types.Chunk{{
		PaperID: p.ID,
		Seq:     0,
		Start:   0,
		End:     len(fallback),
		Text:    fallback,
	}}, false
}

// RemovePaper atomically drops a paper and all its chunks from a session's
// corpus. After it returns, no retrieval can see the paper's chunks.
func (s *Store) RemovePaper(ctx context.Context, sessionID, paperID string) error {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM chunks WHERE session_id = ? AND paper_id = ?`,
		sessionID, paperID,
	); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM papers WHERE session_id = ? AND id = ?`,
		sessionID, paperID,
	)
	if err != nil {
		return fmt.Errorf("deleting paper: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("removing %s: %w", paperID, ErrPaperNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing removal: %w", err)
	}

	s.logger.Info("paper removed",
		zap.String("session", sessionID),
		zap.String("paper", paperID))

	return nil
}

// Papers returns a session's papers in the order they were added.
func (s *Store) Papers(ctx context.Context, sessionID string) ([]types.Paper, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, authors, abstract, year, venue, citation_count,
			source_type, full_text, url, pdf_url, unindexable
		 FROM papers WHERE session_id = ? ORDER BY position, id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying papers: %w", err)
	}
	defer rows.Close()

	var papers []types.Paper
	for rows.Next() {
		var (
			p           types.Paper
			authorsJSON sql.NullString
			sourceType  string
			unindexable int
		)
		if err := rows.Scan(
			&p.ID, &p.Title, &authorsJSON, &p.Abstract, &p.Year, &p.Venue,
			&p.CitationCount, &sourceType, &p.FullText, &p.URL, &p.PDFURL, &unindexable,
		); err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		if authorsJSON.Valid {
			json.Unmarshal([]byte(authorsJSON.String), &p.Authors)
		}
		p.SourceType = types.SourceType(sourceType)
		p.Unindexable = unindexable != 0
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

// PaperCount returns the number of papers in a session's corpus.
func (s *Store) PaperCount(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM papers WHERE session_id = ?`, sessionID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting papers: %w", err)
	}
	return n, nil
}

// Chunks returns one paper's chunks in sequence order.
func (s *Store) Chunks(ctx context.Context, sessionID, paperID string) ([]types.Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT paper_id, seq, start_off, end_off, text
		 FROM chunks WHERE session_id = ? AND paper_id = ? ORDER BY seq`,
		sessionID, paperID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []types.Chunk
	for rows.Next() {
		var c types.Chunk
		if err := rows.Scan(&c.PaperID, &c.Seq, &c.Start, &c.End, &c.Text); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// decodeAuthors unpacks the JSON-encoded author list stored in the papers
// table. Malformed or empty values decode to nil.
func decodeAuthors(encoded string) []string {
	if encoded == "" {
		return nil
	}
	var authors []string
	if err := json.Unmarshal([]byte(encoded), &authors); err != nil {
		return nil
	}
	return authors
}
