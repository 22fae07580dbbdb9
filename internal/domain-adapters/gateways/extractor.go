package gateways

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Per-file size limit during extraction to prevent decompression bombs
const maxExtractedFileSize = 1 << 30

// Extractor unpacks interpreter archives and normalizes the extracted
// distribution
type Extractor struct{}

// NewExtractor creates a new extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract unpacks archivePath into destDir. Supported formats are .tar.gz,
// .tgz and .zip, chosen by file extension.
func (e *Extractor) Extract(archivePath, destDir string) error {
	name := filepath.Base(archivePath)
	switch {
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return e.extractTarGz(archivePath, destDir)
	case strings.HasSuffix(name, ".zip"):
		return e.extractZip(archivePath, destDir)
	default:
		return fmt.Errorf("unsupported archive format: %s", name)
	}
}

// StripPathConfig removes path-configuration files (*._pth) from an
// extracted distribution. Their presence pins sys.path to the layout the
// archive was built with, which breaks pip-installed packages; without
// them the interpreter resolves imports relative to its own tree.
// Returns the removed paths.
func (e *Extractor) StripPathConfig(distDir string) ([]string, error) {
	var removed []string

	err := filepath.WalkDir(distDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), "._pth") {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove path config %s: %w", path, err)
		}
		removed = append(removed, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to strip path configuration: %w", err)
	}

	if len(removed) > 0 {
		slog.Info("Stripped path configuration files", "count", len(removed))
	}

	return removed, nil
}

// extractTarGz extracts a .tar.gz file to destination directory
func (e *Extractor) extractTarGz(tarPath, destDir string) error {
	//nolint:gosec // G304: File path tarPath is the cached archive location
	file, err := os.Open(tarPath)
	if err != nil {
		return fmt.Errorf("failed to open tar.gz: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer file.Close()

	gzr, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	//nolint:errcheck // Defer close on gzip reader
	defer gzr.Close()

	tr := tar.NewReader(gzr)

	if err := os.MkdirAll(destDir, 0750); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	// Collect symlinks for a second pass so targets exist before links
	type symlinkInfo struct {
		target   string
		linkname string
	}
	var symlinks []symlinkInfo

	for {
		header, err := tr.Next()
		if err == io.EOF {
			break // End of archive
		}
		if err != nil {
			return fmt.Errorf("tar read error: %w", err)
		}

		target, err := securePath(destDir, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0750); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}

		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
				return fmt.Errorf("failed to create parent directory: %w", err)
			}

			//nolint:gosec // G115: Integer overflow from tar header mode is acceptable
			outFile, err := os.OpenFile(target, os.O_CREATE|os.O_RDWR|os.O_TRUNC, os.FileMode(header.Mode))
			if err != nil {
				return fmt.Errorf("failed to create file: %w", err)
			}

			if _, err := io.Copy(outFile, io.LimitReader(tr, maxExtractedFileSize)); err != nil {
				_ = outFile.Close()
				return fmt.Errorf("failed to write file: %w", err)
			}
			if err := outFile.Close(); err != nil {
				return fmt.Errorf("failed to close file: %w", err)
			}

		case tar.TypeSymlink:
			symlinks = append(symlinks, symlinkInfo{
				target:   target,
				linkname: header.Linkname,
			})

		default:
			slog.Warn("Ignoring unsupported archive entry", "type", header.Typeflag, "name", header.Name)
		}
	}

	// Second pass: create symlinks after all files exist
	for _, link := range symlinks {
		if err := os.MkdirAll(filepath.Dir(link.target), 0750); err != nil {
			return fmt.Errorf("failed to create directory for symlink: %w", err)
		}
		if err := os.Symlink(link.linkname, link.target); err != nil {
			// Some interpreter tarballs ship broken symlinks; warn only
			slog.Warn("Failed to create symlink", "target", link.target, "linkname", link.linkname, "error", err)
		}
	}

	return nil
}

// extractZip extracts a .zip file to destination directory
func (e *Extractor) extractZip(zipPath, destDir string) error {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("failed to open zip: %w", err)
	}
	//nolint:errcheck // Defer close on zip reader
	defer reader.Close()

	if err := os.MkdirAll(destDir, 0750); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	for _, f := range reader.File {
		target, err := securePath(destDir, f.Name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0750); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
			return fmt.Errorf("failed to create parent directory: %w", err)
		}

		if err := e.extractZipFile(f, target); err != nil {
			return err
		}
	}

	return nil
}

func (e *Extractor) extractZipFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open zip entry %s: %w", f.Name, err)
	}
	//nolint:errcheck // Defer close on zip entry reader
	defer rc.Close()

	outFile, err := os.OpenFile(target, os.O_CREATE|os.O_RDWR|os.O_TRUNC, f.Mode())
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(outFile, io.LimitReader(rc, maxExtractedFileSize)); err != nil {
		_ = outFile.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}

	return outFile.Close()
}

// securePath joins an archive entry name onto destDir, refusing entries
// that would escape it
func securePath(destDir, name string) (string, error) {
	//nolint:gosec // G305: Path traversal validated by HasPrefix check below
	target := filepath.Join(destDir, name)
	if !strings.HasPrefix(filepath.Clean(target), filepath.Clean(destDir)+string(os.PathSeparator)) &&
		filepath.Clean(target) != filepath.Clean(destDir) {
		return "", fmt.Errorf("invalid file path in archive: %s", name)
	}
	return target, nil
}
