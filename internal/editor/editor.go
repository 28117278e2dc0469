// Package editor spawns the user's text editor on a temporary file.
// This is the interactive, blocking collaborator of the tracker core;
// the core never depends on it directly.
package editor

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
)

// Open writes initial to a temp file, runs $EDITOR (vim when unset) on
// it, and returns the edited content. changed is false when the file
// came back byte-identical.
func Open(initial []byte) (edited []byte, changed bool, err error) {
	name := os.Getenv("EDITOR")
	if name == "" {
		name = "vim"
	}

	tmp, err := os.CreateTemp("", "dagaz-*.yaml")
	if err != nil {
		return nil, false, fmt.Errorf("editor: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(initial); err != nil {
		tmp.Close()
		return nil, false, fmt.Errorf("editor: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, false, fmt.Errorf("editor: close temp: %w", err)
	}

	cmd := exec.Command(name, tmp.Name())
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return nil, false, fmt.Errorf("editor: run %s: %w", name, err)
	}

	edited, err = os.ReadFile(tmp.Name())
	if err != nil {
		return nil, false, fmt.Errorf("editor: read back: %w", err)
	}
	return edited, !bytes.Equal(initial, edited), nil
}
