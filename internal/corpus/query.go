// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/corpus-engine/pkg/types"
)

// QueryOptions holds parameters for corpus queries (R5).
type QueryOptions struct {
	// Query is the FTS5 full-text search string over title and abstract
	// (R5.1).
	Query string

	// Venue filters by effective venue (R5.2).
	Venue string

	// Domain filters by domain assignment (R5.3).
	Domain string

	// YearFrom and YearTo bound the publication year (inclusive, zero
	// means unbounded).
	YearFrom int
	YearTo   int

	// MaxResults limits result count. Zero uses store default (R5.4).
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Venue == "" && q.Domain == "" && q.YearFrom == 0 && q.YearTo == 0
}

// Retrieve queries the corpus with optional full-text search and
// structured filters. Results are ranked by relevance for full-text
// queries or sorted by citations then id otherwise (R5.5). On SQLite
// builds without the FTS5 module, query terms match as substrings of
// the title or abstract and citation order applies.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]types.Paper, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != "" && s.fts
	)

	switch {
	case useFTS:
		qb.WriteString(
			`SELECT ` + paperColumns("p") + `
			FROM papers_fts
			JOIN papers p ON p.rowid = papers_fts.rowid
			WHERE papers_fts MATCH ?`)
		args = append(args, opts.Query)
	case opts.Query != "":
		// Substring fallback for SQLite builds without FTS5: every
		// term must appear in the title or abstract.
		qb.WriteString(
			`SELECT ` + paperColumns("p") + `
			FROM papers p
			WHERE 1=1`)
		for _, term := range strings.Fields(opts.Query) {
			qb.WriteString(` AND (p.title LIKE ? OR p.abstract LIKE ?)`)
			pattern := "%" + term + "%"
			args = append(args, pattern, pattern)
		}
	default:
		qb.WriteString(
			`SELECT ` + paperColumns("p") + `
			FROM papers p
			WHERE 1=1`)
	}

	if opts.Venue != "" {
		qb.WriteString(` AND (CASE WHEN p.norm_venue != '' THEN p.norm_venue ELSE p.venue END) = ?`)
		args = append(args, opts.Venue)
	}

	if opts.Domain != "" {
		qb.WriteString(` AND (p.domain = ? OR EXISTS (
			SELECT 1 FROM domains d WHERE d.paper_id = p.id AND d.domain = ?))`)
		args = append(args, opts.Domain, opts.Domain)
	}

	if opts.YearFrom > 0 {
		qb.WriteString(` AND p.year >= ?`)
		args = append(args, opts.YearFrom)
	}
	if opts.YearTo > 0 {
		qb.WriteString(` AND p.year <= ?`)
		args = append(args, opts.YearTo)
	}

	if useFTS {
		qb.WriteString(` ORDER BY papers_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY p.citations DESC, p.id`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	return s.queryPapers(ctx, qb.String(), args...)
}

// All returns every paper in the corpus sorted by id, for export and
// reporting.
func (s *Store) All(ctx context.Context) ([]types.Paper, error) {
	return s.queryPapers(ctx, `SELECT `+paperColumns("p")+` FROM papers p ORDER BY p.id`)
}

// Domains returns every stored domain assignment sorted by paper id.
func (s *Store) Domains(ctx context.Context) ([]types.DomainRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT paper_id, domain, year, raw_label FROM domains ORDER BY paper_id, domain`)
	if err != nil {
		return nil, fmt.Errorf("querying domains: %w", err)
	}
	defer rows.Close()

	var records []types.DomainRecord
	for rows.Next() {
		var rec types.DomainRecord
		if err := rows.Scan(&rec.PaperID, &rec.DomainName, &rec.Year, &rec.RawLabel); err != nil {
			return nil, fmt.Errorf("scanning domain row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func paperColumns(alias string) string {
	cols := []string{
		"id", "title", "authors", "year", "date", "venue", "norm_venue",
		"citations", "abstract", "source", "doi", "arxiv_id",
		"open_access_url", "fields", "domain", "pdf_path",
	}
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

func (s *Store) queryPapers(ctx context.Context, query string, args ...any) ([]types.Paper, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying corpus: %w", err)
	}
	defer rows.Close()

	var papers []types.Paper
	for rows.Next() {
		var (
			p           types.Paper
			dateStr     sql.NullString
			authorsJSON sql.NullString
			fieldsJSON  sql.NullString
		)
		if err := rows.Scan(
			&p.ID, &p.Title, &authorsJSON, &p.Year, &dateStr, &p.Venue,
			&p.NormVenue, &p.Citations, &p.Abstract, &p.Source, &p.DOI,
			&p.ArxivID, &p.OpenAccessURL, &fieldsJSON, &p.Domain, &p.PDFPath,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		if authorsJSON.Valid {
			json.Unmarshal([]byte(authorsJSON.String), &p.Authors)
		}
		if fieldsJSON.Valid {
			json.Unmarshal([]byte(fieldsJSON.String), &p.Fields)
		}
		if dateStr.Valid && dateStr.String != "" {
			if t, err := time.Parse(time.RFC3339, dateStr.String); err == nil {
				p.Date = t
			}
		}

		papers = append(papers, p)
	}

	return papers, rows.Err()
}
