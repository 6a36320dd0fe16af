// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package grobid manages a containerized GROBID service and its TEI API.
// Implements: prd007-extraction R1.1-R1.5 (service lifecycle);
//
//	docs/ARCHITECTURE.md § Extraction.
package grobid

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pdiddy/corpus-engine/internal/container"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

const (
	defaultImage          = "lfoppiano/grobid:0.8.0"
	defaultPort           = 8070
	grobidPort            = 8070
	defaultStartupTimeout = 90 * time.Second
)

// healthPollInterval is the delay between /api/isalive probes while the
// service boots. Tests shorten this.
var healthPollInterval = 2 * time.Second

// Service is a running GROBID container.
type Service struct {
	runtime     container.Runtime
	containerID string
	baseURL     string
}

// BaseURL returns the service endpoint, e.g. "http://localhost:8070".
func (s *Service) BaseURL() string { return s.baseURL }

// Start pulls the image if needed, starts a detached container, and waits
// for the health endpoint to respond. The caller must Stop the returned
// service.
func Start(ctx context.Context, rt container.Runtime, cfg types.GrobidConfig) (*Service, error) {
	image := cfg.Image
	if image == "" {
		image = defaultImage
	}
	port := cfg.Port
	if port <= 0 {
		port = defaultPort
	}
	timeout := cfg.StartupTimeout
	if timeout <= 0 {
		timeout = defaultStartupTimeout
	}

	if err := rt.ImageExists(image); err != nil {
		if err := rt.Pull(image); err != nil {
			return nil, err
		}
	}

	id, err := rt.StartDetached(image, port, grobidPort)
	if err != nil {
		return nil, err
	}

	svc := &Service{
		runtime:     rt,
		containerID: id,
		baseURL:     fmt.Sprintf("http://localhost:%d", port),
	}
	if err := svc.waitHealthy(ctx, timeout); err != nil {
		_ = rt.Stop(id)
		return nil, err
	}
	return svc, nil
}

// Stop stops the service container.
func (s *Service) Stop() error {
	return s.runtime.Stop(s.containerID)
}

// waitHealthy polls /api/isalive until it returns 200 or the timeout
// elapses. GROBID takes tens of seconds to load its models.
func (s *Service) waitHealthy(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 5 * time.Second}

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/isalive", nil)
		if err != nil {
			return fmt.Errorf("creating health request: %w", err)
		}
		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("service at %s not healthy after %s", s.baseURL, timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(healthPollInterval):
		}
	}
}
