// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package download fetches discovered PDFs in parallel with shared rate
// limiting and per-file retry.
// Implements: prd006-download (R1-R5);
//
//	docs/ARCHITECTURE.md § Download.
package download

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/corpus-engine/pkg/types"
)

// RetryBaseDelay controls the base duration for per-file backoff. Tests
// override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

const (
	defaultWorkers = 4
	defaultRetries = 3
)

// pdfMagic is the required file header; HTML error pages served with
// HTTP 200 are the most common corruption in bulk PDF collection.
var pdfMagic = []byte("%PDF")

// Result is the outcome for one PDF.
type Result struct {
	PaperID string
	Path    string
	Err     error
	Skipped bool
}

// Summary aggregates a batch run.
type Summary struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// Total returns the number of records processed.
func (s Summary) Total() int { return s.Downloaded + s.Skipped + s.Failed }

// HasFailures reports whether any downloads failed.
func (s Summary) HasFailures() bool { return s.Failed > 0 }

// Batch downloads every record through a fixed worker pool (R2.1). Workers
// share one rate limiter so concurrency does not multiply the request
// rate (R2.2). Existing files are skipped (R2.3). Progress lines go to w;
// per-file failures do not stop the batch (R4.1).
func Batch(ctx context.Context, client *http.Client, records []types.PDFRecord, cfg types.DownloadConfig, w io.Writer) (Summary, []Result) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	if workers > len(records) && len(records) > 0 {
		workers = len(records)
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	jobs := make(chan types.PDFRecord)
	results := make(chan Result)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				results <- downloadOne(ctx, client, limiter, rec, cfg)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, rec := range records {
			select {
			case <-ctx.Done():
				return
			case jobs <- rec:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var summary Summary
	var all []Result
	for res := range results {
		all = append(all, res)
		switch {
		case res.Err != nil:
			summary.Failed++
			fmt.Fprintf(w, "failed:  %s (%v)\n", res.PaperID, res.Err)
		case res.Skipped:
			summary.Skipped++
			fmt.Fprintf(w, "skipped: %s (already exists)\n", res.PaperID)
		default:
			summary.Downloaded++
			fmt.Fprintf(w, "saved:   %s\n", res.PaperID)
		}
	}

	fmt.Fprintf(w, "\nDownload summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		summary.Downloaded, summary.Skipped, summary.Failed, summary.Total())
	return summary, all
}

// downloadOne fetches a single PDF with retry on retryable statuses.
func downloadOne(ctx context.Context, client *http.Client, limiter *rate.Limiter, rec types.PDFRecord, cfg types.DownloadConfig) Result {
	res := Result{PaperID: rec.PaperID}

	destPath := filepath.Join(cfg.PDFDir, safeFilename(rec.PaperID)+".pdf")
	res.Path = destPath

	if _, err := os.Stat(destPath); err == nil {
		res.Skipped = true
		return res
	}

	if err := os.MkdirAll(cfg.PDFDir, 0o755); err != nil {
		res.Err = fmt.Errorf("creating pdf directory: %w", err)
		return res
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultRetries
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * RetryBaseDelay
			select {
			case <-ctx.Done():
				res.Err = ctx.Err()
				return res
			case <-time.After(backoff):
			}
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				res.Err = err
				return res
			}
		}

		retry, err := fetchFile(ctx, client, rec.URL, destPath, cfg)
		if err == nil {
			return res
		}
		lastErr = err
		if !retry {
			break
		}
	}
	res.Err = lastErr
	return res
}

// fetchFile downloads url to destPath through a temp file renamed on
// success (R2.4). The retry return reports whether the failure is worth
// another attempt.
func fetchFile(ctx context.Context, client *http.Client, url, destPath string, cfg types.DownloadConfig) (retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := client.Do(req)
	if err != nil {
		return true, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode >= http.StatusInternalServerError:
		return true, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	default:
		return false, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	// Validate the header before committing anything to disk (R2.5).
	header := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(resp.Body, header); err != nil {
		return false, fmt.Errorf("reading response: %w", err)
	}
	if !bytes.Equal(header, pdfMagic) {
		return false, fmt.Errorf("response from %s is not a PDF", url)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".download-*.tmp")
	if err != nil {
		return false, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := tmpFile.Write(header)
	if copyErr == nil {
		_, copyErr = io.Copy(tmpFile, resp.Body)
	}
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return true, fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return false, fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return false, fmt.Errorf("renaming temp file: %w", err)
	}
	return false, nil
}

// safeFilename keeps paper-ID slugs filesystem-safe.
func safeFilename(id string) string {
	return strings.NewReplacer("/", "-", ":", "-", "\\", "-").Replace(id)
}
