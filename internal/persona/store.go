// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package persona stores prior reviewer comments and retrieves the ones
// most relevant to a section under review. It is the reference
// implementation of the review.PersonaSource collaborator, backed by
// SQLite with an FTS5 index.
package persona

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/review-engine/pkg/types"
)

// Store manages the persona SQLite database.
type Store struct {
	db          *sql.DB
	maxSnippets int
}

// Open opens or creates the persona database at cfg.DBPath, creating the
// schema if it does not exist.
func Open(cfg types.PersonaConfig) (*Store, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("persona database path is empty")
	}
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating persona directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening persona database: %w", err)
	}

	maxSnippets := cfg.MaxSnippets
	if maxSnippets <= 0 {
		maxSnippets = 5
	}

	s := &Store{db: db, maxSnippets: maxSnippets}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating persona schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS comments (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			source TEXT NOT NULL,
			content TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_comments_source ON comments(source)`,
		`CREATE TABLE IF NOT EXISTS ingest_status (
			source TEXT PRIMARY KEY,
			file_mod_time TEXT
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
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='comments_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE comments_fts USING fts5(content, content=comments, content_rowid=rowid)`,
			`CREATE TRIGGER comments_ai AFTER INSERT ON comments BEGIN
				INSERT INTO comments_fts(rowid, content) VALUES (new.rowid, new.content);
			END`,
			`CREATE TRIGGER comments_ad AFTER DELETE ON comments BEGIN
				INSERT INTO comments_fts(comments_fts, rowid, content) VALUES('delete', old.rowid, old.content);
			END`,
			`CREATE TRIGGER comments_au AFTER UPDATE ON comments BEGIN
				INSERT INTO comments_fts(comments_fts, rowid, content) VALUES('delete', old.rowid, old.content);
				INSERT INTO comments_fts(rowid, content) VALUES (new.rowid, new.content);
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

// IngestSummary holds counts from a persona ingest run.
type IngestSummary struct {
	Ingested int
	Updated  int
	Skipped  int
	Failed   int
}

// Total returns the number of files processed.
func (s IngestSummary) Total() int {
	return s.Ingested + s.Updated + s.Skipped + s.Failed
}

// Ingest loads prior-review files from dir into the store. YAML files
// carry explicit comment lists; markdown and plain-text files are split
// into paragraph comments. Files whose modification time is unchanged
// since the last ingest are skipped.
func (s *Store) Ingest(ctx context.Context, dir string, w io.Writer) (IngestSummary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading persona directory %s: %w", dir, err)
	}

	var summary IngestSummary

	for _, entry := range entries {
		if entry.IsDir() || !supportedExt(entry.Name()) {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		source := entry.Name()
		path := filepath.Join(dir, source)

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", source, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM ingest_status WHERE source = ?`, source,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", source)
			summary.Skipped++
			continue
		}
		isUpdate := err == nil

		comments, err := readComments(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", source, err)
			summary.Failed++
			continue
		}

		if err := s.ingestFile(ctx, source, comments, modTime, isUpdate); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", source, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d comments)\n", source, len(comments))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "ingested %s (%d comments)\n", source, len(comments))
			summary.Ingested++
		}
	}

	fmt.Fprintf(w, "\ningested: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Ingested, summary.Updated, summary.Skipped, summary.Failed)

	return summary, nil
}

func (s *Store) ingestFile(ctx context.Context, source string, comments []string, modTime string, isUpdate bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if isUpdate {
		if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE source = ?`, source); err != nil {
			return fmt.Errorf("deleting old comments: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO comments (id, source, content) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range comments {
		if _, err := stmt.ExecContext(ctx, commentID(source, c), source, c); err != nil {
			return fmt.Errorf("inserting comment: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ingest_status (source, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(source) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		source, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating ingest status: %w", err)
	}

	return tx.Commit()
}

// Retrieve returns the k comments most relevant to query, ranked by FTS5
// relevance. k <= 0 uses the store default. An empty or unmatchable query
// returns no snippets.
func (s *Store) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	if k <= 0 {
		k = s.maxSnippets
	}

	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT c.content
		 FROM comments_fts
		 JOIN comments c ON c.rowid = comments_fts.rowid
		 WHERE comments_fts MATCH ?
		 ORDER BY comments_fts.rank
		 LIMIT ?`, match, k)
	if err != nil {
		return nil, fmt.Errorf("querying persona store: %w", err)
	}
	defer rows.Close()

	var snippets []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		snippets = append(snippets, content)
	}
	return snippets, rows.Err()
}

// ftsQuery converts free text into an FTS5 match expression. Section
// titles and key points are not valid FTS5 syntax as-is (hyphens, colons),
// so each token is quoted and tokens are OR-ed.
func ftsQuery(query string) string {
	var terms []string
	for _, tok := range strings.Fields(query) {
		tok = strings.Trim(tok, `"'`)
		if tok == "" {
			continue
		}
		terms = append(terms, `"`+strings.ReplaceAll(tok, `"`, "")+`"`)
	}
	return strings.Join(terms, " OR ")
}

func supportedExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".md", ".txt":
		return true
	}
	return false
}

// personaFile is the YAML shape for explicit comment lists.
type personaFile struct {
	Comments []string `yaml:"comments"`
}

// readComments parses one prior-review file into comment strings. YAML
// files may be a bare list of strings or a document with a comments key;
// anything else is split into paragraphs on blank lines.
func readComments(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var list []string
		if err := yaml.Unmarshal(data, &list); err == nil && len(list) > 0 {
			return trimComments(list), nil
		}
		var pf personaFile
		if err := yaml.Unmarshal(data, &pf); err != nil {
			return nil, fmt.Errorf("parse error: %w", err)
		}
		return trimComments(pf.Comments), nil
	default:
		return splitParagraphs(string(data)), nil
	}
}

func trimComments(comments []string) []string {
	var out []string
	for _, c := range comments {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// splitParagraphs breaks text into blank-line-separated comments,
// dropping markdown headings.
func splitParagraphs(text string) []string {
	var out []string
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" || strings.HasPrefix(block, "#") {
			continue
		}
		out = append(out, strings.Join(strings.Fields(block), " "))
	}
	return out
}

// commentID derives a stable identifier from the source file and content.
func commentID(source, content string) string {
	sum := sha256.Sum256([]byte(source + "\n" + content))
	return hex.EncodeToString(sum[:])[:12]
}
