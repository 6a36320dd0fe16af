// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package corpus persists the publication corpus and builds a search index.
// Implements: prd008-corpus (R1-R5);
//
//	docs/ARCHITECTURE.md § Corpus Store.
package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/corpus-engine/pkg/types"
)

const (
	papersDir = "papers"
	indexDir  = "index"
	dbFile    = "corpus.db"
)

// Store manages the corpus SQLite database.
type Store struct {
	db         *sql.DB
	corpusDir  string
	maxResults int

	// fts records whether the SQLite build carries the FTS5 module.
	// Without it Retrieve falls back to substring matching.
	fts bool
}

// NewStore opens or creates the corpus SQLite database at
// corpusDir/index/corpus.db. It creates the schema if it does not exist
// (R1.1, R1.2).
func NewStore(cfg types.CorpusStoreConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.CorpusDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		corpusDir:  cfg.CorpusDir,
		maxResults: maxResults,
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
			id TEXT PRIMARY KEY,
			title TEXT,
			authors TEXT,
			year INTEGER,
			date TEXT,
			venue TEXT,
			norm_venue TEXT,
			citations INTEGER,
			abstract TEXT,
			source TEXT,
			doi TEXT,
			arxiv_id TEXT,
			open_access_url TEXT,
			fields TEXT,
			domain TEXT,
			pdf_path TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_year ON papers(year)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_norm_venue ON papers(norm_venue)`,
		`CREATE TABLE IF NOT EXISTS domains (
			paper_id TEXT NOT NULL REFERENCES papers(id),
			domain TEXT NOT NULL,
			year INTEGER,
			raw_label TEXT,
			PRIMARY KEY (paper_id, domain)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_domains_domain ON domains(domain)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			snapshot TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 is only compiled into mattn/go-sqlite3 under the sqlite_fts5
	// build tag (the mage Build and Test targets pass it). Without the
	// module the store still works; Retrieve matches substrings instead.
	var ftsAvailable int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM pragma_module_list WHERE name = 'fts5'`,
	).Scan(&ftsAvailable); err != nil {
		return fmt.Errorf("checking FTS5 availability: %w", err)
	}
	s.fts = ftsAvailable > 0
	if !s.fts {
		return nil
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='papers_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE papers_fts USING fts5(title, abstract, content=papers, content_rowid=rowid)`,
			`CREATE TRIGGER papers_ai AFTER INSERT ON papers BEGIN
				INSERT INTO papers_fts(rowid, title, abstract) VALUES (new.rowid, new.title, new.abstract);
			END`,
			`CREATE TRIGGER papers_ad AFTER DELETE ON papers BEGIN
				INSERT INTO papers_fts(papers_fts, rowid, title, abstract) VALUES('delete', old.rowid, old.title, old.abstract);
			END`,
			`CREATE TRIGGER papers_au AFTER UPDATE ON papers BEGIN
				INSERT INTO papers_fts(papers_fts, rowid, title, abstract) VALUES('delete', old.rowid, old.title, old.abstract);
				INSERT INTO papers_fts(rowid, title, abstract) VALUES (new.rowid, new.title, new.abstract);
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

// IngestSummary holds counts from a corpus indexing run (R2.4).
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of snapshots processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest reads paper snapshot JSON files from corpusDir/papers/ and
// populates the database. It detects new, changed, and unchanged snapshots
// for incremental updates (R2.1-R2.3).
func (s *Store) Ingest(ctx context.Context, w io.Writer) (IngestSummary, error) {
	snapDir := filepath.Join(s.corpusDir, papersDir)

	entries, err := os.ReadDir(snapDir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading snapshot directory %s: %w", snapDir, err)
	}

	var summary IngestSummary

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		name := strings.TrimSuffix(entry.Name(), ".json")
		filePath := filepath.Join(snapDir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		// Check whether the snapshot has changed since last indexing (R2.2).
		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM indexing_status WHERE snapshot = ?`, name,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", name)
			summary.Skipped++
			continue
		}

		isUpdate := err == nil

		data, err := os.ReadFile(filePath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}

		var papers []types.Paper
		if err := json.Unmarshal(data, &papers); err != nil {
			fmt.Fprintf(w, "failed  %s: parse error: %v\n", name, err)
			summary.Failed++
			continue
		}

		if err := s.ingestSnapshot(ctx, name, papers, modTime); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d papers)\n", name, len(papers))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexed %s (%d papers)\n", name, len(papers))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	return summary, nil
}

func (s *Store) ingestSnapshot(ctx context.Context, name string, papers []types.Paper, modTime string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO papers (id, title, authors, year, date, venue, norm_venue, citations,
			abstract, source, doi, arxiv_id, open_access_url, fields, domain, pdf_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, authors=excluded.authors, year=excluded.year,
			date=excluded.date, venue=excluded.venue, norm_venue=excluded.norm_venue,
			citations=excluded.citations, abstract=excluded.abstract,
			source=excluded.source, doi=excluded.doi, arxiv_id=excluded.arxiv_id,
			open_access_url=excluded.open_access_url, fields=excluded.fields,
			domain=excluded.domain, pdf_path=excluded.pdf_path`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i := range papers {
		p := &papers[i]
		authorsJSON, _ := json.Marshal(p.Authors)
		fieldsJSON, _ := json.Marshal(p.Fields)
		dateStr := ""
		if !p.Date.IsZero() {
			dateStr = p.Date.Format(time.RFC3339)
		}
		_, err := stmt.ExecContext(ctx,
			p.ID, p.Title, string(authorsJSON), p.Year, dateStr,
			p.Venue, p.NormVenue, p.Citations, p.Abstract, p.Source,
			p.DOI, p.ArxivID, p.OpenAccessURL, string(fieldsJSON),
			p.Domain, p.PDFPath,
		)
		if err != nil {
			return fmt.Errorf("upserting paper %s: %w", p.ID, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO indexing_status (snapshot, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(snapshot) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		name, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating indexing status: %w", err)
	}

	return tx.Commit()
}

// SetDomains replaces stored domain assignments with the given records and
// mirrors each paper's first domain onto the papers table (R3.1, R3.2).
func (s *Store) SetDomains(ctx context.Context, records []types.DomainRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM domains`); err != nil {
		return fmt.Errorf("clearing domains: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO domains (paper_id, domain, year, raw_label) VALUES (?, ?, ?, ?)
		 ON CONFLICT(paper_id, domain) DO UPDATE SET year=excluded.year, raw_label=excluded.raw_label`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	seen := map[string]bool{}
	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.PaperID, rec.DomainName, rec.Year, rec.RawLabel); err != nil {
			return fmt.Errorf("inserting domain for %s: %w", rec.PaperID, err)
		}
		if !seen[rec.PaperID] {
			seen[rec.PaperID] = true
			if _, err := tx.ExecContext(ctx,
				`UPDATE papers SET domain = ? WHERE id = ?`, rec.DomainName, rec.PaperID,
			); err != nil {
				return fmt.Errorf("updating paper domain for %s: %w", rec.PaperID, err)
			}
		}
	}

	return tx.Commit()
}

// UpdateCitations sets the citation count for one paper (R4.2). It
// reports whether the paper exists.
func (s *Store) UpdateCitations(ctx context.Context, paperID string, citations int) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE papers SET citations = ? WHERE id = ?`, citations, paperID)
	if err != nil {
		return false, fmt.Errorf("updating citations for %s: %w", paperID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking update for %s: %w", paperID, err)
	}
	return n > 0, nil
}

// Count returns the number of papers in the corpus.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM papers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting papers: %w", err)
	}
	return n, nil
}
