package gateways

import (
	"fmt"
	"os"
	"path/filepath"
)

// WrapperWriter generates convenience wrapper scripts that invoke the
// provisioned interpreter without activating anything
type WrapperWriter struct{}

// NewWrapperWriter creates a new wrapper writer
func NewWrapperWriter() *WrapperWriter {
	return &WrapperWriter{}
}

// Write generates python and pip wrappers in binDir pointing at the
// interpreter binary. POSIX shell scripts plus a .cmd twin for each.
func (w *WrapperWriter) Write(binDir, python string) ([]string, error) {
	absPython, err := filepath.Abs(python)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve interpreter path: %w", err)
	}

	if err := os.MkdirAll(binDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create wrapper directory: %w", err)
	}

	wrappers := []struct {
		name string
		args string
	}{
		{name: "python", args: ""},
		{name: "pip", args: " -m pip"},
	}

	var written []string
	for _, wr := range wrappers {
		shPath := filepath.Join(binDir, wr.name)
		sh := fmt.Sprintf("#!/bin/sh\nexec %q%s \"$@\"\n", absPython, wr.args)
		//nolint:gosec // G306: Wrapper scripts must be executable
		if err := os.WriteFile(shPath, []byte(sh), 0755); err != nil {
			return nil, fmt.Errorf("failed to write wrapper %s: %w", wr.name, err)
		}
		written = append(written, shPath)

		cmdPath := shPath + ".cmd"
		cmd := fmt.Sprintf("@echo off\r\n\"%s\"%s %%*\r\n", absPython, wr.args)
		if err := os.WriteFile(cmdPath, []byte(cmd), 0644); err != nil { //nolint:gosec // G306: Wrapper scripts are not secrets
			return nil, fmt.Errorf("failed to write wrapper %s: %w", wr.name+".cmd", err)
		}
		written = append(written, cmdPath)
	}

	return written, nil
}

// Remove deletes previously generated wrappers; missing files are fine
func (w *WrapperWriter) Remove(binDir string) error {
	for _, name := range []string{"python", "python.cmd", "pip", "pip.cmd"} {
		if err := os.Remove(filepath.Join(binDir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove wrapper %s: %w", name, err)
		}
	}
	return nil
}
