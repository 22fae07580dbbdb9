// Package gateways implements the provisioning adapters: archive download,
// extraction, checksum verification and pip execution.
package gateways

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Downloader fetches interpreter archives into the local cache
type Downloader struct {
	httpClient *http.Client
	verifier   *checksumVerifier
}

// NewDownloader creates a new downloader
func NewDownloader() *Downloader {
	return &Downloader{
		httpClient: &http.Client{
			Timeout: 5 * time.Minute, // Long timeout for large downloads
		},
		verifier: NewChecksumVerifier(),
	}
}

// Fetch downloads the archive at rawURL into cacheDir and returns its
// local path. When a cached copy exists and its SHA-256 matches sha256 the
// download is skipped. A cached copy with a wrong digest is discarded and
// fetched again. Without a known digest a cached file is trusted as-is.
func (d *Downloader) Fetch(ctx context.Context, rawURL, sha256, cacheDir string) (string, bool, error) {
	filename, err := archiveFilename(rawURL)
	if err != nil {
		return "", false, err
	}

	if err := os.MkdirAll(cacheDir, 0750); err != nil {
		return "", false, fmt.Errorf("failed to create cache directory: %w", err)
	}

	cachePath := filepath.Join(cacheDir, filename)
	if _, err := os.Stat(cachePath); err == nil {
		if sha256 == "" {
			return cachePath, true, nil
		}
		if err := d.verifier.Verify(ctx, cachePath, sha256); err == nil {
			return cachePath, true, nil
		}
		slog.Warn("Cached archive fails checksum, refetching", "archive", filename)
		if err := os.Remove(cachePath); err != nil {
			return "", false, fmt.Errorf("failed to discard bad cached archive: %w", err)
		}
	}

	// Stage under a unique name so an interrupted run never leaves a
	// partial archive at the final cache path.
	staging := filepath.Join(cacheDir, ".partial-"+uuid.NewString())
	if err := d.downloadFile(ctx, rawURL, staging); err != nil {
		//nolint:errcheck,gosec // G104: Best effort cleanup of staging file
		os.Remove(staging)
		return "", false, fmt.Errorf("download failed: %w", err)
	}

	if sha256 != "" {
		if err := d.verifier.Verify(ctx, staging, sha256); err != nil {
			//nolint:errcheck,gosec // G104: Best effort cleanup of staging file
			os.Remove(staging)
			return "", false, err
		}
	}

	if err := os.Rename(staging, cachePath); err != nil {
		//nolint:errcheck,gosec // G104: Best effort cleanup of staging file
		os.Remove(staging)
		return "", false, fmt.Errorf("failed to move archive into cache: %w", err)
	}

	return cachePath, false, nil
}

// downloadFile downloads a URL to a destination path with retry on
// transient failures
func (d *Downloader) downloadFile(ctx context.Context, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "pie/1.0")

	resp, err := doWithRetry(d.httpClient, req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	//nolint:gosec // G304: File path dest is the download staging location
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	//nolint:errcheck // Defer close on file being written
	defer out.Close()

	written, err := io.Copy(out, resp.Body)
	if err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	slog.Info("Downloaded archive", "archive", filepath.Base(dest), "bytes", written)
	return nil
}

// archiveFilename derives the cache filename from a download URL
func archiveFilename(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid download URL %q: %w", rawURL, err)
	}

	name := filepath.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("download URL %q has no file name", rawURL)
	}
	return name, nil
}
