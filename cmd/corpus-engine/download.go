// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/corpus-engine/internal/download"
	"github.com/pdiddy/corpus-engine/internal/harvest"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download discovered PDFs in parallel",
	Long: `Download fetches every discovered PDF location through a worker pool
with a shared rate limit. Responses are validated as PDFs and written
atomically; existing files are skipped. With --input, successful downloads
are recorded on the paper snapshot.`,
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().String("records", "", "PDF record file from discover (default: <corpus-dir>/index/pdf-records.json)")
	downloadCmd.Flags().String("input", "", "paper snapshot to annotate with PDF paths")
	downloadCmd.Flags().String("pdf-dir", "", "PDF output directory (default: <corpus-dir>/pdfs)")
	downloadCmd.Flags().Int("workers", 4, "concurrent download workers")
	downloadCmd.Flags().Float64("rps", 2, "shared download rate across workers")
	downloadCmd.Flags().Int("max-retries", 3, "per-file retry budget")
	downloadCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	recordsPath, _ := cmd.Flags().GetString("records")
	if recordsPath == "" {
		recordsPath = filepath.Join(corpusDir(cmd), "index", "pdf-records.json")
	}
	input, _ := cmd.Flags().GetString("input")
	pdfDir, _ := cmd.Flags().GetString("pdf-dir")
	if pdfDir == "" {
		pdfDir = filepath.Join(corpusDir(cmd), "pdfs")
	}
	workers, _ := cmd.Flags().GetInt("workers")
	rps, _ := cmd.Flags().GetFloat64("rps")
	maxRetries, _ := cmd.Flags().GetInt("max-retries")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}

	data, err := os.ReadFile(recordsPath)
	if err != nil {
		return fmt.Errorf("reading PDF records %s: %w", recordsPath, err)
	}
	var records []types.PDFRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parsing PDF records: %w", err)
	}

	cfg := types.DownloadConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		Workers:           workers,
		RequestsPerSecond: rps,
		MaxRetries:        maxRetries,
		PDFDir:            pdfDir,
	}

	client := &http.Client{Timeout: cfg.Timeout}
	summary, results := download.Batch(context.Background(), client, records, cfg, os.Stdout)

	if input != "" {
		if err := annotatePDFPaths(input, results); err != nil {
			return err
		}
	}

	if summary.HasFailures() {
		return fmt.Errorf("%d PDF(s) failed to download", summary.Failed)
	}
	return nil
}

// annotatePDFPaths records on-disk PDF paths on the snapshot for papers
// whose download succeeded or was already present.
func annotatePDFPaths(input string, results []download.Result) error {
	papers, err := harvest.ReadSnapshot(input)
	if err != nil {
		return err
	}

	paths := make(map[string]string, len(results))
	for _, res := range results {
		if res.Err == nil {
			paths[res.PaperID] = res.Path
		}
	}
	for i := range papers {
		if p, ok := paths[papers[i].ID]; ok {
			papers[i].PDFPath = p
		}
	}
	return harvest.WritePapers(input, papers)
}
