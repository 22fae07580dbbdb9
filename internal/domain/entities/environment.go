package entities

import "path/filepath"

// Environment represents a provisioned interpreter environment on disk
type Environment struct {
	BaseDir  string
	CacheDir string
	// InstalledVersion is the version recorded in the lock file,
	// empty when no environment is installed.
	InstalledVersion string
}

// DistDir is the directory holding the extracted interpreter distribution
func (e *Environment) DistDir() string {
	return filepath.Join(e.BaseDir, "dist")
}

// BinDir is the directory holding generated wrapper scripts
func (e *Environment) BinDir() string {
	return filepath.Join(e.BaseDir, "bin")
}

// LockPath is the path of the version lock file written after a
// successful install
func (e *Environment) LockPath() string {
	return filepath.Join(e.BaseDir, "pyver.lock")
}

// Action describes what an install run has to do for an environment
type Action int

const (
	// ActionNone means the installed version already satisfies the request
	ActionNone Action = iota
	// ActionInstall means no environment exists yet
	ActionInstall
	// ActionReinstall means the installed version does not match the
	// requested one and the environment must be replaced
	ActionReinstall
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionInstall:
		return "install"
	case ActionReinstall:
		return "reinstall"
	default:
		return "unknown"
	}
}
