package gateways

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func digestOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// TestDownloader_Fetch tests archive download and cache behavior
func TestDownloader_Fetch(t *testing.T) {
	content := []byte("interpreter archive bytes")
	var hits atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		//nolint:errcheck // Test server response
		w.Write(content)
	}))
	defer server.Close()

	url := server.URL + "/cpython-3.12.4-linux-x86_64.tar.gz"
	d := NewDownloader()

	t.Run("download and cache", func(t *testing.T) {
		cacheDir := t.TempDir()

		path, cacheHit, err := d.Fetch(context.Background(), url, digestOf(content), cacheDir)
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if cacheHit {
			t.Error("Fetch() first call reported cache hit")
		}
		if filepath.Base(path) != "cpython-3.12.4-linux-x86_64.tar.gz" {
			t.Errorf("Fetch() path = %v, want archive filename", path)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("Failed to read cached archive: %v", err)
		}
		if string(data) != string(content) {
			t.Error("Cached archive content differs from served content")
		}

		// Second fetch must be served from cache
		before := hits.Load()
		_, cacheHit, err = d.Fetch(context.Background(), url, digestOf(content), cacheDir)
		if err != nil {
			t.Fatalf("Fetch() second call error = %v", err)
		}
		if !cacheHit {
			t.Error("Fetch() second call did not hit cache")
		}
		if hits.Load() != before {
			t.Error("Fetch() second call touched the network")
		}
	})

	t.Run("corrupt cache entry refetched", func(t *testing.T) {
		cacheDir := t.TempDir()
		stale := filepath.Join(cacheDir, "cpython-3.12.4-linux-x86_64.tar.gz")
		if err := os.WriteFile(stale, []byte("corrupted"), 0600); err != nil {
			t.Fatalf("Failed to seed cache: %v", err)
		}

		path, cacheHit, err := d.Fetch(context.Background(), url, digestOf(content), cacheDir)
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if cacheHit {
			t.Error("Fetch() reported cache hit for corrupt entry")
		}

		data, _ := os.ReadFile(path)
		if string(data) != string(content) {
			t.Error("Corrupt cache entry was not replaced")
		}
	})

	t.Run("checksum mismatch aborts", func(t *testing.T) {
		cacheDir := t.TempDir()
		bad := "0000000000000000000000000000000000000000000000000000000000000000"

		_, _, err := d.Fetch(context.Background(), url, bad, cacheDir)
		if err == nil {
			t.Fatal("Fetch() with wrong checksum should fail")
		}

		// No partial or final file may remain
		entries, readErr := os.ReadDir(cacheDir)
		if readErr != nil {
			t.Fatalf("Failed to read cache dir: %v", readErr)
		}
		if len(entries) != 0 {
			t.Errorf("Cache dir not clean after failed fetch: %v", entries)
		}
	})

	t.Run("http error surfaces", func(t *testing.T) {
		errServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
		defer errServer.Close()

		_, _, err := d.Fetch(context.Background(), errServer.URL+"/missing.tar.gz", "", t.TempDir())
		if err == nil {
			t.Fatal("Fetch() of missing archive should fail")
		}
	})
}

// TestArchiveFilename tests cache filename derivation from URLs
func TestArchiveFilename(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{name: "plain", url: "https://example.com/downloads/python-3.12.4.tar.gz", want: "python-3.12.4.tar.gz"},
		{name: "query ignored", url: "https://example.com/python.zip?token=abc", want: "python.zip"},
		{name: "no filename", url: "https://example.com/", wantErr: true},
		{name: "garbage", url: "::::", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := archiveFilename(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Errorf("archiveFilename(%q) expected error", tt.url)
				}
				return
			}
			if err != nil {
				t.Fatalf("archiveFilename(%q) error = %v", tt.url, err)
			}
			if got != tt.want {
				t.Errorf("archiveFilename(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}
