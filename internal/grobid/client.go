// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package grobid

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Client calls the GROBID TEI API over HTTP.
type Client struct {
	// BaseURL is the service endpoint, e.g. "http://localhost:8070".
	BaseURL string

	// HTTPClient is the client used for API requests. Header extraction is
	// fast but full-text processing of a long paper can take minutes, so
	// the caller sets the timeout.
	HTTPClient *http.Client
}

// NewClient returns a client for the service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

// ProcessHeader extracts bibliographic metadata from the PDF at path and
// returns the TEI XML document.
func (c *Client) ProcessHeader(ctx context.Context, path string) ([]byte, error) {
	return c.process(ctx, "/api/processHeaderDocument", path)
}

// ProcessFulltext extracts the complete structured document from the PDF
// at path and returns the TEI XML document.
func (c *Client) ProcessFulltext(ctx context.Context, path string) ([]byte, error) {
	return c.process(ctx, "/api/processFulltextDocument", path)
}

func (c *Client) process(ctx context.Context, endpoint, path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("input", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copying PDF into form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/xml")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GROBID returned HTTP %d for %s", resp.StatusCode, filepath.Base(path))
	}

	tei, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading TEI response: %w", err)
	}
	return tei, nil
}
