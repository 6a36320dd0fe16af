// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package container

import (
	"errors"
	"strings"
	"testing"
)

// mockExecutor records calls and returns configured responses.
type mockExecutor struct {
	availableBins map[string]bool   // binary -> whether LookPath succeeds
	runnableCmds  map[string]bool   // "bin arg1 arg2" -> whether RunSilent succeeds
	outputs       map[string]string // "bin arg1 arg2" -> RunOutput result
	calls         []string
}

func (m *mockExecutor) LookPath(file string) (string, error) {
	if m.availableBins[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (m *mockExecutor) RunSilent(name string, args ...string) error {
	key := name + " " + strings.Join(args, " ")
	m.calls = append(m.calls, key)
	if m.runnableCmds[key] {
		return nil
	}
	return errors.New("command failed: " + key)
}

func (m *mockExecutor) RunOutput(name string, args ...string) (string, error) {
	key := name + " " + strings.Join(args, " ")
	m.calls = append(m.calls, key)
	if out, ok := m.outputs[key]; ok {
		return out, nil
	}
	return "", errors.New("command failed: " + key)
}

func TestDetectRuntime(t *testing.T) {
	tests := []struct {
		name     string
		exec     *mockExecutor
		wantName string
		wantErr  bool
	}{
		{
			name: "docker available",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true},
				runnableCmds:  map[string]bool{"docker info": true},
			},
			wantName: "docker",
		},
		{
			name: "podman fallback when docker missing",
			exec: &mockExecutor{
				availableBins: map[string]bool{"podman": true},
				runnableCmds:  map[string]bool{"podman info": true},
			},
			wantName: "podman",
		},
		{
			name: "neither available",
			exec: &mockExecutor{
				availableBins: map[string]bool{},
				runnableCmds:  map[string]bool{},
			},
			wantErr: true,
		},
		{
			name: "docker on PATH but info fails, podman works",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true, "podman": true},
				runnableCmds:  map[string]bool{"podman info": true},
			},
			wantName: "podman",
		},
		{
			name: "both available, docker preferred",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true, "podman": true},
				runnableCmds:  map[string]bool{"docker info": true, "podman info": true},
			},
			wantName: "docker",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, err := detectRuntime(tt.exec)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), "no container runtime available") {
					t.Errorf("error should mention no runtime available, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rt.Name() != tt.wantName {
				t.Errorf("got runtime %q, want %q", rt.Name(), tt.wantName)
			}
		})
	}
}

func TestImageExists(t *testing.T) {
	tests := []struct {
		name    string
		mkRT    func(*mockExecutor) Runtime
		image   string
		cmds    map[string]bool
		wantErr bool
	}{
		{
			name:  "docker image exists",
			mkRT:  func(e *mockExecutor) Runtime { return newDockerRuntime(e) },
			image: "lfoppiano/grobid:0.8.0",
			cmds:  map[string]bool{"docker image inspect lfoppiano/grobid:0.8.0": true},
		},
		{
			name:    "docker image not found",
			mkRT:    func(e *mockExecutor) Runtime { return newDockerRuntime(e) },
			image:   "lfoppiano/grobid:0.8.0",
			cmds:    map[string]bool{},
			wantErr: true,
		},
		{
			name:  "podman image exists",
			mkRT:  func(e *mockExecutor) Runtime { return newPodmanRuntime(e) },
			image: "lfoppiano/grobid:0.8.0",
			cmds:  map[string]bool{"podman image exists lfoppiano/grobid:0.8.0": true},
		},
		{
			name:    "podman image not found",
			mkRT:    func(e *mockExecutor) Runtime { return newPodmanRuntime(e) },
			image:   "lfoppiano/grobid:0.8.0",
			cmds:    map[string]bool{},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &mockExecutor{runnableCmds: tt.cmds}
			rt := tt.mkRT(exec)
			err := rt.ImageExists(tt.image)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.image) {
					t.Errorf("error should mention image name, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestPull(t *testing.T) {
	exec := &mockExecutor{
		runnableCmds: map[string]bool{"docker pull lfoppiano/grobid:0.8.0": true},
	}
	rt := newDockerRuntime(exec)
	if err := rt.Pull("lfoppiano/grobid:0.8.0"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := rt.Pull("missing:latest"); err == nil {
		t.Fatal("expected error for unpullable image")
	}
}

func TestStartDetached(t *testing.T) {
	tests := []struct {
		name    string
		outputs map[string]string
		wantID  string
		wantErr bool
	}{
		{
			name: "returns container ID",
			outputs: map[string]string{
				"docker run --rm -d -p 8070:8070 lfoppiano/grobid:0.8.0": "abc123def",
			},
			wantID: "abc123def",
		},
		{
			name:    "command failure",
			outputs: map[string]string{},
			wantErr: true,
		},
		{
			name: "empty ID is an error",
			outputs: map[string]string{
				"docker run --rm -d -p 8070:8070 lfoppiano/grobid:0.8.0": "",
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &mockExecutor{outputs: tt.outputs}
			rt := newDockerRuntime(exec)
			id, err := rt.StartDetached("lfoppiano/grobid:0.8.0", 8070, 8070)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id != tt.wantID {
				t.Errorf("got ID %q, want %q", id, tt.wantID)
			}
		})
	}
}

func TestStop(t *testing.T) {
	exec := &mockExecutor{
		runnableCmds: map[string]bool{"podman stop abc123": true},
	}
	rt := newPodmanRuntime(exec)
	if err := rt.Stop("abc123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := rt.Stop("other"); err == nil {
		t.Fatal("expected error for unknown container")
	}
}

func TestRuntimeName(t *testing.T) {
	exec := &mockExecutor{}
	docker := newDockerRuntime(exec)
	if docker.Name() != "docker" {
		t.Errorf("docker runtime name = %q, want %q", docker.Name(), "docker")
	}
	podman := newPodmanRuntime(exec)
	if podman.Name() != "podman" {
		t.Errorf("podman runtime name = %q, want %q", podman.Name(), "podman")
	}
}
