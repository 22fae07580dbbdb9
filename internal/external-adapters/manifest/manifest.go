// Package manifest reads the plain-text project manifest files: pyver.txt
// for the requested interpreter version and requirements declarations for
// pip dependencies.
package manifest

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ochairo/pie/internal/domain/entities"
)

const (
	// VersionFile declares the requested interpreter version, with an
	// optional second line carrying an override download URL.
	VersionFile = "pyver.txt"
	// RequirementsFile is the default pip requirements declaration.
	RequirementsFile = "requirements.txt"
	// RequirementsListFile names additional requirements files, one per line.
	RequirementsListFile = "requirements-files.txt"
)

// Loader reads manifest files from a project directory
type Loader struct {
	projectDir string
}

// NewLoader creates a manifest loader rooted at projectDir
func NewLoader(projectDir string) *Loader {
	return &Loader{projectDir: projectDir}
}

// Load reads pyver.txt and the requirements declarations into a Manifest
func (l *Loader) Load() (*entities.Manifest, error) {
	m := &entities.Manifest{}

	version, overrideURL, err := l.readVersionFile()
	if err != nil {
		return nil, err
	}
	m.RequestedVersion = version
	m.OverrideURL = overrideURL

	reqs, err := l.requirementsFiles()
	if err != nil {
		return nil, err
	}
	m.RequirementsFiles = reqs

	return m, nil
}

// readVersionFile parses pyver.txt: first non-comment line is the version,
// an optional second one an override download URL
func (l *Loader) readVersionFile() (version, overrideURL string, err error) {
	path := filepath.Join(l.projectDir, VersionFile)
	//nolint:gosec // G304: path is the project manifest location
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", fmt.Errorf("%s not found in %s: declare the interpreter version first", VersionFile, l.projectDir)
		}
		return "", "", fmt.Errorf("failed to open %s: %w", VersionFile, err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", VersionFile, err)
	}

	if len(lines) == 0 {
		return "", "", fmt.Errorf("%s is empty", VersionFile)
	}

	version = lines[0]
	if len(lines) > 1 {
		overrideURL = lines[1]
		if !strings.Contains(overrideURL, "://") {
			return "", "", fmt.Errorf("%s line 2 is not a URL: %s", VersionFile, overrideURL)
		}
	}

	return version, overrideURL, nil
}

// requirementsFiles collects the requirements files to install: the
// default requirements.txt when present, then every existing file named
// in requirements-files.txt
func (l *Loader) requirementsFiles() ([]string, error) {
	var files []string

	defaultReq := filepath.Join(l.projectDir, RequirementsFile)
	if _, err := os.Stat(defaultReq); err == nil {
		files = append(files, defaultReq)
	}

	listPath := filepath.Join(l.projectDir, RequirementsListFile)
	//nolint:gosec // G304: path is the project manifest location
	data, err := os.ReadFile(listPath)
	if err != nil {
		if os.IsNotExist(err) {
			return files, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", RequirementsListFile, err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		name := strings.TrimSpace(line)
		if name == "" || strings.HasPrefix(name, "#") {
			continue
		}
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(l.projectDir, name)
		}
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("requirements file %s listed in %s does not exist", name, RequirementsListFile)
		}
		files = append(files, path)
	}

	return files, nil
}
