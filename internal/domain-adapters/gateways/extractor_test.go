package gateways

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
)

type tarEntry struct {
	name     string
	body     string
	mode     int64
	typeflag byte
	linkname string
}

func writeTarGz(t *testing.T, path string, entries []tarEntry) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create archive: %v", err)
	}
	defer f.Close() //nolint:errcheck // test cleanup

	gzw := gzip.NewWriter(f)
	tw := tar.NewWriter(gzw)

	for _, e := range entries {
		hdr := &tar.Header{
			Name:     e.name,
			Mode:     e.mode,
			Typeflag: e.typeflag,
			Linkname: e.linkname,
			Size:     int64(len(e.body)),
		}
		if hdr.Mode == 0 {
			hdr.Mode = 0644
		}
		if hdr.Typeflag == 0 {
			hdr.Typeflag = tar.TypeReg
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("Failed to write tar header: %v", err)
		}
		if e.typeflag == tar.TypeReg || e.typeflag == 0 {
			if _, err := tw.Write([]byte(e.body)); err != nil {
				t.Fatalf("Failed to write tar body: %v", err)
			}
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatalf("Failed to close tar writer: %v", err)
	}
	if err := gzw.Close(); err != nil {
		t.Fatalf("Failed to close gzip writer: %v", err)
	}
}

// TestExtractor_TarGz tests tar.gz extraction
func TestExtractor_TarGz(t *testing.T) {
	e := NewExtractor()

	t.Run("files directories and symlinks", func(t *testing.T) {
		tmpDir := t.TempDir()
		archive := filepath.Join(tmpDir, "python.tar.gz")
		writeTarGz(t, archive, []tarEntry{
			{name: "python/", typeflag: tar.TypeDir, mode: 0755},
			{name: "python/bin/", typeflag: tar.TypeDir, mode: 0755},
			{name: "python/bin/python3.12", body: "#!binary", mode: 0755},
			{name: "python/bin/python3", typeflag: tar.TypeSymlink, linkname: "python3.12", mode: 0777},
			{name: "python/lib/os.py", body: "# stdlib", mode: 0644},
		})

		destDir := filepath.Join(tmpDir, "dist")
		if err := e.Extract(archive, destDir); err != nil {
			t.Fatalf("Extract() error = %v", err)
		}

		data, err := os.ReadFile(filepath.Join(destDir, "python/lib/os.py"))
		if err != nil {
			t.Fatalf("Extracted file missing: %v", err)
		}
		if string(data) != "# stdlib" {
			t.Errorf("Extracted content = %q, want %q", data, "# stdlib")
		}

		link, err := os.Readlink(filepath.Join(destDir, "python/bin/python3"))
		if err != nil {
			t.Fatalf("Symlink missing: %v", err)
		}
		if link != "python3.12" {
			t.Errorf("Symlink target = %v, want python3.12", link)
		}
	})

	t.Run("path traversal rejected", func(t *testing.T) {
		tmpDir := t.TempDir()
		archive := filepath.Join(tmpDir, "evil.tar.gz")
		writeTarGz(t, archive, []tarEntry{
			{name: "../escape.txt", body: "pwned"},
		})

		if err := e.Extract(archive, filepath.Join(tmpDir, "dist")); err == nil {
			t.Fatal("Extract() should reject path traversal")
		}
	})

	t.Run("unsupported format", func(t *testing.T) {
		tmpDir := t.TempDir()
		archive := filepath.Join(tmpDir, "python.rar")
		if err := os.WriteFile(archive, []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
		if err := e.Extract(archive, filepath.Join(tmpDir, "dist")); err == nil {
			t.Fatal("Extract() should reject unknown archive format")
		}
	})
}

// TestExtractor_Zip tests zip extraction
func TestExtractor_Zip(t *testing.T) {
	e := NewExtractor()
	tmpDir := t.TempDir()

	archive := filepath.Join(tmpDir, "python.zip")
	f, err := os.Create(archive)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("python/python.exe")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("MZbinary")); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	destDir := filepath.Join(tmpDir, "dist")
	if err := e.Extract(archive, destDir); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(destDir, "python/python.exe"))
	if err != nil {
		t.Fatalf("Extracted file missing: %v", err)
	}
	if string(data) != "MZbinary" {
		t.Errorf("Extracted content = %q", data)
	}
}

// TestExtractor_StripPathConfig tests ._pth removal
func TestExtractor_StripPathConfig(t *testing.T) {
	e := NewExtractor()
	distDir := t.TempDir()

	pth := filepath.Join(distDir, "python312._pth")
	nested := filepath.Join(distDir, "python", "python312._pth")
	keep := filepath.Join(distDir, "python312.zip")

	if err := os.MkdirAll(filepath.Dir(nested), 0750); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{pth, nested, keep} {
		if err := os.WriteFile(p, []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := e.StripPathConfig(distDir)
	if err != nil {
		t.Fatalf("StripPathConfig() error = %v", err)
	}
	if len(removed) != 2 {
		t.Errorf("StripPathConfig() removed %d files, want 2", len(removed))
	}

	for _, p := range []string{pth, nested} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("Path config file still present: %s", p)
		}
	}
	if _, err := os.Stat(keep); err != nil {
		t.Errorf("Unrelated file was removed: %s", keep)
	}
}
