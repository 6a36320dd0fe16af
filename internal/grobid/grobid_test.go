// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package grobid

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/corpus-engine/pkg/types"
)

func init() {
	healthPollInterval = time.Millisecond
}

// fakeRuntime implements container.Runtime for lifecycle tests.
type fakeRuntime struct {
	imageLocal bool
	pulled     []string
	started    []string
	stopped    []string
	startErr   error
	startPort  int
}

func (f *fakeRuntime) Name() string    { return "docker" }
func (f *fakeRuntime) Available() bool { return true }

func (f *fakeRuntime) ImageExists(image string) error {
	if f.imageLocal {
		return nil
	}
	return errors.New("image not found")
}

func (f *fakeRuntime) Pull(image string) error {
	f.pulled = append(f.pulled, image)
	f.imageLocal = true
	return nil
}

func (f *fakeRuntime) StartDetached(image string, hostPort, containerPort int) (string, error) {
	if f.startErr != nil {
		return "", f.startErr
	}
	f.started = append(f.started, image)
	f.startPort = hostPort
	return "container-1", nil
}

func (f *fakeRuntime) Stop(id string) error {
	f.stopped = append(f.stopped, id)
	return nil
}

// healthyServerPort starts an httptest server answering /api/isalive and
// returns its port, so Start's localhost URL hits it.
func healthyServerPort(t *testing.T, healthy bool) int {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/isalive" && healthy {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)
	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatal(err)
	}
	return port
}

func TestStart_PullsMissingImage(t *testing.T) {
	port := healthyServerPort(t, true)
	rt := &fakeRuntime{imageLocal: false}
	cfg := types.GrobidConfig{Port: port, StartupTimeout: time.Second}

	svc, err := Start(context.Background(), rt, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer svc.Stop()

	if len(rt.pulled) != 1 || rt.pulled[0] != defaultImage {
		t.Errorf("pulled = %v, want [%s]", rt.pulled, defaultImage)
	}
	if rt.startPort != port {
		t.Errorf("started on port %d, want %d", rt.startPort, port)
	}
}

func TestStart_SkipsPullWhenImageLocal(t *testing.T) {
	port := healthyServerPort(t, true)
	rt := &fakeRuntime{imageLocal: true}
	cfg := types.GrobidConfig{Port: port, StartupTimeout: time.Second}

	svc, err := Start(context.Background(), rt, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer svc.Stop()

	if len(rt.pulled) != 0 {
		t.Errorf("pulled = %v, want no pulls", rt.pulled)
	}
}

func TestStart_StopsContainerOnHealthTimeout(t *testing.T) {
	port := healthyServerPort(t, false)
	rt := &fakeRuntime{imageLocal: true}
	cfg := types.GrobidConfig{Port: port, StartupTimeout: 20 * time.Millisecond}

	_, err := Start(context.Background(), rt, cfg)
	if err == nil {
		t.Fatal("expected health timeout error")
	}
	if len(rt.stopped) != 1 {
		t.Errorf("stopped = %v, want the failed container stopped", rt.stopped)
	}
}

func TestServiceStop(t *testing.T) {
	rt := &fakeRuntime{}
	svc := &Service{runtime: rt, containerID: "container-1"}
	if err := svc.Stop(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rt.stopped) != 1 || rt.stopped[0] != "container-1" {
		t.Errorf("stopped = %v, want [container-1]", rt.stopped)
	}
}

const teiSample = `<?xml version="1.0" encoding="UTF-8"?>
<TEI xmlns="http://www.tei-c.org/ns/1.0"><teiHeader/></TEI>`

func TestClientProcessHeader(t *testing.T) {
	var gotPath, gotField, gotFile string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		file, header, err := r.FormFile("input")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		gotField = string(data)
		gotFile = header.Filename
		w.Write([]byte(teiSample))
	}))
	defer server.Close()

	pdfPath := filepath.Join(t.TempDir(), "paper.pdf")
	if err := os.WriteFile(pdfPath, []byte("%PDF-1.5 body"), 0o644); err != nil {
		t.Fatal(err)
	}

	client := NewClient(server.URL)
	tei, err := client.ProcessHeader(context.Background(), pdfPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/api/processHeaderDocument" {
		t.Errorf("request path = %q", gotPath)
	}
	if gotField != "%PDF-1.5 body" {
		t.Errorf("uploaded body = %q", gotField)
	}
	if gotFile != "paper.pdf" {
		t.Errorf("uploaded filename = %q", gotFile)
	}
	if !strings.Contains(string(tei), "teiHeader") {
		t.Errorf("TEI response = %q", tei)
	}
}

func TestClientProcessFulltext(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(teiSample))
	}))
	defer server.Close()

	pdfPath := filepath.Join(t.TempDir(), "paper.pdf")
	if err := os.WriteFile(pdfPath, []byte("%PDF-1.5 body"), 0o644); err != nil {
		t.Fatal(err)
	}

	client := NewClient(server.URL)
	if _, err := client.ProcessFulltext(context.Background(), pdfPath); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/api/processFulltextDocument" {
		t.Errorf("request path = %q", gotPath)
	}
}

func TestClientErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	pdfPath := filepath.Join(t.TempDir(), "paper.pdf")
	if err := os.WriteFile(pdfPath, []byte("%PDF-1.5"), 0o644); err != nil {
		t.Fatal(err)
	}

	client := NewClient(server.URL)
	_, err := client.ProcessHeader(context.Background(), pdfPath)
	if err == nil {
		t.Fatal("expected error for HTTP 500")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error should mention status, got: %v", err)
	}
}

func TestClientMissingFile(t *testing.T) {
	client := NewClient("http://localhost:1")
	_, err := client.ProcessHeader(context.Background(), "/nonexistent/paper.pdf")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
