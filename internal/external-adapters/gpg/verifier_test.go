package gpg

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Test importing key from nonexistent file
func TestVerifier_ImportKeyFromFile_NonexistentFile(t *testing.T) {
	v := NewVerifier()

	err := v.ImportKeyFromFile("/nonexistent/key.asc")
	if err == nil {
		t.Fatal("Expected error for nonexistent file, got nil")
	}
	if !strings.Contains(err.Error(), "failed to open key file") {
		t.Errorf("Expected 'failed to open key file' error, got: %v", err)
	}
}

// Test importing a file that is not key material
func TestVerifier_ImportKeyFromFile_Garbage(t *testing.T) {
	v := NewVerifier()
	keyPath := filepath.Join(t.TempDir(), "key.asc")
	if err := os.WriteFile(keyPath, []byte("this is not a key"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := v.ImportKeyFromFile(keyPath); err == nil {
		t.Fatal("Expected error for garbage key material, got nil")
	}
	if v.KeyringSize() != 0 {
		t.Errorf("KeyringSize() = %d, want 0", v.KeyringSize())
	}
}

// Test that verification refuses to run with an empty keyring
func TestVerifier_VerifySignature_EmptyKeyring(t *testing.T) {
	v := NewVerifier()

	err := v.VerifySignature(context.Background(), "/tmp/archive.tar.gz", "https://example.com/archive.tar.gz.asc")
	if err == nil {
		t.Fatal("Expected error with empty keyring, got nil")
	}
	if !strings.Contains(err.Error(), "no keys imported") {
		t.Errorf("Expected 'no keys imported' error, got: %v", err)
	}
}

// Test that ImportKeys requires key IDs
func TestVerifier_ImportKeys_NoIDs(t *testing.T) {
	v := NewVerifier()

	if err := v.ImportKeys(context.Background(), nil); err == nil {
		t.Fatal("Expected error for empty key ID list, got nil")
	}
}

// Test keyserver failure handling during import
func TestVerifier_ImportKeys_KeyserverFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	v := NewVerifier()
	// Point both keyserver slots at the failing test server
	oldServers := keyservers
	keyservers = []string{server.URL}
	defer func() { keyservers = oldServers }()

	err := v.ImportKeys(context.Background(), []string{"7169605F62C751356D054A26A821E680E5FA6305"})
	if err == nil {
		t.Fatal("Expected error when all keyservers fail, got nil")
	}
	if !strings.Contains(err.Error(), "failed to import key") {
		t.Errorf("Expected import failure error, got: %v", err)
	}
}

// Test local detached signature verification failure modes
func TestVerifier_VerifySignatureFromFile(t *testing.T) {
	v := NewVerifier()
	tmpDir := t.TempDir()

	dataPath := filepath.Join(tmpDir, "archive.tar.gz")
	sigPath := filepath.Join(tmpDir, "archive.tar.gz.asc")
	if err := os.WriteFile(dataPath, []byte("archive"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(sigPath, []byte("-----BEGIN PGP SIGNATURE-----\njunk\n-----END PGP SIGNATURE-----\n"), 0600); err != nil {
		t.Fatal(err)
	}

	t.Run("empty keyring", func(t *testing.T) {
		if err := v.VerifySignatureFromFile(dataPath, sigPath); err == nil {
			t.Error("Expected error with empty keyring")
		}
	})
}
