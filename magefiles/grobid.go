//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
)

const grobidImage = "lfoppiano/grobid:0.8.0"

// Grobid pulls the GROBID container image used by the extract stage.
// See prd007-extraction for full requirements.
func Grobid() error {
	runtime := "docker"
	if _, err := exec.LookPath(runtime); err != nil {
		runtime = "podman"
		if _, err := exec.LookPath(runtime); err != nil {
			return fmt.Errorf("neither docker nor podman found on PATH")
		}
	}
	cmd := exec.Command(runtime, "pull", grobidImage)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s pull: %w", runtime, err)
	}
	fmt.Printf("Pulled %s\n", grobidImage)
	return nil
}
