// Package gateways defines interfaces for provisioning operations.
package gateways

import "context"

// Downloader defines the interface for fetching interpreter archives
type Downloader interface {
	// Fetch downloads the archive at url into cacheDir and returns the
	// local path. A cached copy whose SHA-256 matches sha256 (when given)
	// short-circuits the download.
	Fetch(ctx context.Context, url, sha256, cacheDir string) (path string, cacheHit bool, err error)
}

// Extractor defines the interface for unpacking interpreter archives
type Extractor interface {
	// Extract unpacks archivePath into destDir.
	Extract(archivePath, destDir string) error

	// StripPathConfig removes path-configuration files (*._pth) from an
	// extracted distribution so imports resolve relative to its own tree.
	StripPathConfig(distDir string) ([]string, error)
}

// PipRunner defines the interface for driving the extracted interpreter
type PipRunner interface {
	// PythonPath locates the interpreter binary inside distDir.
	PythonPath(distDir string) (string, error)

	// EnsurePip makes sure pip is importable, bootstrapping it if absent.
	EnsurePip(ctx context.Context, python string) error

	// InstallRequirements installs one requirements file.
	InstallRequirements(ctx context.Context, python, reqFile string) error
}

// SignatureVerifier defines the interface for detached-signature checks
type SignatureVerifier interface {
	ImportKeys(ctx context.Context, keyIDs []string) error
	VerifySignature(ctx context.Context, filePath, sigURL string) error
}
