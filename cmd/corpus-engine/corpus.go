// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/corpus-engine/internal/corpus"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Manage the corpus index (store, query, export)",
	Long: `Corpus manages a local SQLite index built from paper snapshots. Use
subcommands to ingest snapshots, query papers, or export the corpus.`,
}

// --- store subcommand ---

var corpusStoreCmd = &cobra.Command{
	Use:   "store",
	Short: "Ingest paper snapshots into the corpus index",
	Long: `Store reads snapshot JSON files from <corpus-dir>/papers/, ingests
them into a SQLite database with FTS5 indexing over titles and abstracts.
Unchanged snapshots are skipped on subsequent runs.`,
	RunE: runCorpusStore,
}

func runCorpusStore(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(context.Background(), os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d snapshot(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- query subcommand ---

var corpusQueryCmd = &cobra.Command{
	Use:   "query [terms]",
	Short: "Query the corpus with full-text search and filters",
	Long: `Query searches the corpus using FTS5 full-text search over titles and
abstracts, structured filters (venue, domain, year window), or both.`,
	RunE: runCorpusQuery,
}

func runCorpusQuery(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := corpusQueryOpts(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide search terms, --venue, --domain, or --from/--to")
	}

	results, err := store.Retrieve(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatQueryOutput(results, jsonOutput)
}

func formatQueryOutput(results []types.Paper, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-56s  %-12s  %-4s  %-5s  %s\n",
		"Rank", "Title", "Venue", "Year", "Cites", "Domain")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))

	for i := range results {
		p := &results[i]
		title := p.Title
		if len(title) > 56 {
			title = title[:53] + "..."
		}
		venue := p.EffectiveVenue()
		if len(venue) > 12 {
			venue = venue[:9] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-56s  %-12s  %-4d  %-5d  %s\n",
			i+1, title, venue, p.Year, p.Citations, p.Domain)
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

// --- export subcommand ---

var corpusExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the corpus to JSON or Postgres",
	Long: `Export writes the full corpus to <corpus-dir>/index/export.json, or
with --postgres copies it into a Postgres database as JSONB rows for
downstream SQL analysis. The DSN comes from --dsn, the postgres-dsn
secret, or the POSTGRES_DSN environment variable.`,
	RunE: runCorpusExport,
}

func runCorpusExport(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	toPostgres, _ := cmd.Flags().GetBool("postgres")
	if toPostgres {
		dsnFlag, _ := cmd.Flags().GetString("dsn")
		dsn := secretDefault("postgres-dsn", dsnFlag)
		n, err := store.ExportPostgres(context.Background(), dsn, os.Stdout)
		if err != nil {
			return err
		}
		fmt.Printf("Exported %d papers to Postgres\n", n)
		return nil
	}

	path, err := store.ExportJSON(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("Exported to %s\n", path)
	return nil
}

// --- shared helpers ---

func openStore(cmd *cobra.Command) (*corpus.Store, error) {
	maxResults, _ := cmd.Flags().GetInt("max-results")
	return corpus.NewStore(types.CorpusStoreConfig{
		CorpusDir:  corpusDir(cmd),
		MaxResults: maxResults,
	})
}

func corpusQueryOpts(cmd *cobra.Command, args []string) corpus.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}

	venue, _ := cmd.Flags().GetString("venue")
	domain, _ := cmd.Flags().GetString("domain")
	from, _ := cmd.Flags().GetInt("from")
	to, _ := cmd.Flags().GetInt("to")
	limit, _ := cmd.Flags().GetInt("limit")

	return corpus.QueryOptions{
		Query:      queryText,
		Venue:      venue,
		Domain:     domain,
		YearFrom:   from,
		YearTo:     to,
		MaxResults: limit,
	}
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	corpusCmd.PersistentFlags().Int("max-results", 20, "maximum number of query results")

	// Query flags.
	corpusQueryCmd.Flags().String("query", "", "full-text search query")
	corpusQueryCmd.Flags().String("venue", "", "filter by normalized venue")
	corpusQueryCmd.Flags().String("domain", "", "filter by research domain")
	corpusQueryCmd.Flags().Int("from", 0, "first publication year")
	corpusQueryCmd.Flags().Int("to", 0, "last publication year")
	corpusQueryCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	corpusQueryCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	corpusExportCmd.Flags().Bool("postgres", false, "export to Postgres instead of JSON")
	corpusExportCmd.Flags().String("dsn", "", "Postgres connection string")

	// Wire subcommands.
	corpusCmd.AddCommand(corpusStoreCmd)
	corpusCmd.AddCommand(corpusQueryCmd)
	corpusCmd.AddCommand(corpusExportCmd)

	rootCmd.AddCommand(corpusCmd)
}
