// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/corpus-engine/internal/container"
	"github.com/pdiddy/corpus-engine/internal/extract"
	"github.com/pdiddy/corpus-engine/internal/grobid"
	"github.com/pdiddy/corpus-engine/internal/harvest"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract text and suppression indicators from downloaded PDFs",
	Long: `Extract runs each downloaded PDF through a containerized GROBID service
for TEI header and full-text extraction, falling back to local PDF text
parsing when GROBID is unavailable or fails on a paper. The scanned text
is scored for suppression indicators (seed counts, ablation coverage,
stated resource constraints) and one JSON record per paper is written.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().String("input", "", "paper snapshot with PDF paths (required)")
	extractCmd.Flags().String("output-dir", "", "extraction record directory (default: <corpus-dir>/extracted)")
	extractCmd.Flags().Bool("local-only", false, "skip GROBID and use local text extraction")
	extractCmd.Flags().String("grobid-image", "", "GROBID container image (default lfoppiano/grobid:0.8.0)")
	extractCmd.Flags().Int("grobid-port", 8070, "host port for the GROBID service")
	extractCmd.Flags().Duration("grobid-timeout", 90*time.Second, "GROBID startup timeout")
	extractCmd.Flags().Int("max-pages", 0, "pages scanned by local fallback (default 12)")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	if input == "" {
		return fmt.Errorf("--input snapshot required")
	}
	outputDir, _ := cmd.Flags().GetString("output-dir")
	if outputDir == "" {
		outputDir = filepath.Join(corpusDir(cmd), "extracted")
	}
	localOnly, _ := cmd.Flags().GetBool("local-only")
	image, _ := cmd.Flags().GetString("grobid-image")
	port, _ := cmd.Flags().GetInt("grobid-port")
	startupTimeout, _ := cmd.Flags().GetDuration("grobid-timeout")
	maxPages, _ := cmd.Flags().GetInt("max-pages")

	papers, err := harvest.ReadSnapshot(input)
	if err != nil {
		return err
	}

	cfg := types.ExtractionConfig{
		Grobid: types.GrobidConfig{
			Image:          image,
			Port:           port,
			StartupTimeout: startupTimeout,
		},
		MaxPages:  maxPages,
		OutputDir: outputDir,
	}

	ctx := context.Background()

	var proc extract.TEIProcessor
	if !localOnly {
		rt, err := container.DetectRuntime()
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v; using local text extraction\n", err)
		} else {
			svc, err := grobid.Start(ctx, rt, cfg.Grobid)
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning: GROBID startup failed: %v; using local text extraction\n", err)
			} else {
				defer svc.Stop()
				proc = grobid.NewClient(svc.BaseURL())
			}
		}
	}

	summary, err := extract.Run(ctx, proc, papers, cfg, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d paper(s) failed extraction", summary.Failed)
	}
	return nil
}
