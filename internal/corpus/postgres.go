// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"

	_ "github.com/lib/pq"
)

// ExportPostgres copies the corpus into a Postgres database as JSONB rows,
// one per paper, for downstream SQL analysis. Existing rows are replaced
// by id. Returns the number of exported papers.
func (s *Store) ExportPostgres(ctx context.Context, dsn string, w io.Writer) (int, error) {
	if dsn == "" {
		return 0, fmt.Errorf("postgres DSN not configured")
	}

	pg, err := sql.Open("postgres", dsn)
	if err != nil {
		return 0, fmt.Errorf("connecting to postgres: %w", err)
	}
	defer pg.Close()

	if err := pg.PingContext(ctx); err != nil {
		return 0, fmt.Errorf("pinging postgres: %w", err)
	}

	_, err = pg.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS corpus_papers (
			id TEXT PRIMARY KEY,
			doc JSONB NOT NULL
		)`)
	if err != nil {
		return 0, fmt.Errorf("creating corpus_papers table: %w", err)
	}

	papers, err := s.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("querying for export: %w", err)
	}

	stmt, err := pg.PrepareContext(ctx, `
		INSERT INTO corpus_papers (id, doc) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	count := 0
	for i := range papers {
		doc, err := json.Marshal(&papers[i])
		if err != nil {
			return count, fmt.Errorf("marshaling paper %s: %w", papers[i].ID, err)
		}
		if _, err := stmt.ExecContext(ctx, papers[i].ID, doc); err != nil {
			return count, fmt.Errorf("inserting paper %s: %w", papers[i].ID, err)
		}
		count++
		if count%1000 == 0 {
			fmt.Fprintf(w, "exported %d papers\n", count)
		}
	}

	fmt.Fprintf(w, "postgres export complete: %d papers\n", count)
	return count, nil
}
