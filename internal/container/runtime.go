// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container implements container runtime detection and detached
// service management.
// Implements: prd007-extraction R1.1-R1.3 (container runtime strategy);
//
//	docs/ARCHITECTURE.md § Extraction.
package container

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

const (
	binDocker = "docker"
	binPodman = "podman"
)

// Runtime provides container operations: checking availability, verifying
// and pulling images, and managing detached service containers.
type Runtime interface {
	// Name returns the runtime name ("docker" or "podman").
	Name() string

	// Available reports whether the runtime binary exists on PATH and
	// responds to an info command.
	Available() bool

	// ImageExists checks whether the named image exists locally.
	// Returns nil when the image is found, or an error describing the failure.
	ImageExists(image string) error

	// Pull fetches the named image from its registry.
	Pull(image string) error

	// StartDetached starts a detached container mapping hostPort to
	// containerPort and returns the container ID.
	StartDetached(image string, hostPort, containerPort int) (string, error)

	// Stop stops and removes the container with the given ID.
	Stop(id string) error
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunSilent(name string, args ...string) error
	RunOutput(name string, args ...string) (string, error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunSilent(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

func (o *osExecutor) RunOutput(name string, args ...string) (string, error) {
	out, err := exec.Command(name, args...).Output()
	return strings.TrimSpace(string(out)), err
}

// runtime implements Runtime for a specific container binary. Both Docker
// and Podman share the same logic; they differ only in binary name and the
// subcommand used to check image existence.
type runtime struct {
	bin           string
	imageCheckCmd []string // e.g. ["image", "inspect"] for docker
	exec          executor
}

func (r *runtime) Name() string { return r.bin }

func (r *runtime) Available() bool {
	if _, err := r.exec.LookPath(r.bin); err != nil {
		return false
	}
	return r.exec.RunSilent(r.bin, "info") == nil
}

func (r *runtime) ImageExists(image string) error {
	args := make([]string, 0, len(r.imageCheckCmd)+1)
	args = append(args, r.imageCheckCmd...)
	args = append(args, image)

	if err := r.exec.RunSilent(r.bin, args...); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, r.bin, err)
	}
	return nil
}

func (r *runtime) Pull(image string) error {
	if err := r.exec.RunSilent(r.bin, "pull", image); err != nil {
		return fmt.Errorf("pulling image %s with %s: %w", image, r.bin, err)
	}
	return nil
}

func (r *runtime) StartDetached(image string, hostPort, containerPort int) (string, error) {
	portMap := strconv.Itoa(hostPort) + ":" + strconv.Itoa(containerPort)
	id, err := r.exec.RunOutput(r.bin, "run", "--rm", "-d", "-p", portMap, image)
	if err != nil {
		return "", fmt.Errorf("starting %s container %s: %w", r.bin, image, err)
	}
	if id == "" {
		return "", fmt.Errorf("starting %s container %s: empty container ID", r.bin, image)
	}
	return id, nil
}

func (r *runtime) Stop(id string) error {
	if err := r.exec.RunSilent(r.bin, "stop", id); err != nil {
		return fmt.Errorf("stopping %s container %s: %w", r.bin, id, err)
	}
	return nil
}

func newDockerRuntime(exec executor) *runtime {
	return &runtime{
		bin:           binDocker,
		imageCheckCmd: []string{"image", "inspect"},
		exec:          exec,
	}
}

func newPodmanRuntime(exec executor) *runtime {
	return &runtime{
		bin:           binPodman,
		imageCheckCmd: []string{"image", "exists"},
		exec:          exec,
	}
}

var defaultExec = &osExecutor{}

// DetectRuntime tries docker first, falls back to podman. Returns an error
// if neither runtime is available.
func DetectRuntime() (Runtime, error) {
	return detectRuntime(defaultExec)
}

func detectRuntime(exec executor) (Runtime, error) {
	docker := newDockerRuntime(exec)
	if docker.Available() {
		return docker, nil
	}

	podman := newPodmanRuntime(exec)
	if podman.Available() {
		return podman, nil
	}

	return nil, fmt.Errorf(
		"no container runtime available: neither %s nor %s found or operational",
		binDocker, binPodman,
	)
}
