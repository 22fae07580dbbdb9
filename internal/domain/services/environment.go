package services

import (
	"fmt"
	"os"
	"strings"

	"github.com/ochairo/pie/internal/domain/entities"
)

// EnvironmentService inspects installed environments and decides what an
// install run has to do
type EnvironmentService struct{}

// NewEnvironmentService creates a new environment service
func NewEnvironmentService() *EnvironmentService {
	return &EnvironmentService{}
}

// Inspect reads the on-disk state of an environment. A missing lock file
// or dist directory means no environment is installed.
func (s *EnvironmentService) Inspect(baseDir, cacheDir string) (*entities.Environment, error) {
	env := &entities.Environment{
		BaseDir:  baseDir,
		CacheDir: cacheDir,
	}

	data, err := os.ReadFile(env.LockPath())
	if err != nil {
		if os.IsNotExist(err) {
			return env, nil
		}
		return nil, fmt.Errorf("failed to read lock file: %w", err)
	}

	version := strings.TrimSpace(string(data))
	if version == "" {
		return env, nil
	}

	// A lock file without the distribution it describes is stale
	// (interrupted uninstall); treat it as not installed.
	if info, err := os.Stat(env.DistDir()); err != nil || !info.IsDir() {
		return env, nil
	}

	env.InstalledVersion = version
	return env, nil
}

// Decide determines the action for an install run given the installed and
// resolved versions. A mismatch is never a failure, it means reinstall.
func (s *EnvironmentService) Decide(env *entities.Environment, resolvedVersion string) entities.Action {
	switch {
	case env.InstalledVersion == "":
		return entities.ActionInstall
	case env.InstalledVersion == resolvedVersion:
		return entities.ActionNone
	default:
		return entities.ActionReinstall
	}
}

// WriteLock records the installed version after a successful install
func (s *EnvironmentService) WriteLock(env *entities.Environment, version string) error {
	if err := os.MkdirAll(env.BaseDir, 0750); err != nil {
		return fmt.Errorf("failed to create base directory: %w", err)
	}
	if err := os.WriteFile(env.LockPath(), []byte(version+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write lock file: %w", err)
	}
	return nil
}

// RemoveDist deletes an installed distribution ahead of a reinstall.
// The archive cache is deliberately left in place.
func (s *EnvironmentService) RemoveDist(env *entities.Environment) error {
	if err := os.RemoveAll(env.DistDir()); err != nil {
		return fmt.Errorf("failed to remove distribution: %w", err)
	}
	if err := os.Remove(env.LockPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}
