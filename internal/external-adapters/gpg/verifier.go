// Package gpg provides detached-signature verification for downloaded
// interpreter archives using ProtonMail's go-crypto, the maintained fork
// of golang.org/x/crypto/openpgp.
package gpg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
)

const armoredSigPrefix = "-----BEGIN PGP SIGNATURE---"

// Keyserver fallbacks for key imports
var keyservers = []string{
	"https://keys.openpgp.org",
	"https://keyserver.ubuntu.com",
}

// Verifier holds an in-memory keyring and verifies release signatures
type Verifier struct {
	keyring    openpgp.EntityList
	httpClient *http.Client
}

// NewVerifier creates a new signature verifier with an empty keyring
func NewVerifier() *Verifier {
	return &Verifier{
		keyring: make(openpgp.EntityList, 0),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// KeyringSize returns the number of imported keys
func (v *Verifier) KeyringSize() int {
	return len(v.keyring)
}

// ImportKeys fetches release-manager keys by fingerprint from the
// configured keyservers, trying each until one succeeds
func (v *Verifier) ImportKeys(ctx context.Context, keyIDs []string) error {
	if len(keyIDs) == 0 {
		return fmt.Errorf("no key IDs provided")
	}

	for _, keyID := range keyIDs {
		if keyID == "" {
			continue
		}

		var lastErr error
		imported := false

		for _, keyserver := range keyservers {
			urls := []string{
				fmt.Sprintf("%s/vks/v1/by-fingerprint/%s", keyserver, keyID),
				fmt.Sprintf("%s/pks/lookup?op=get&search=0x%s", keyserver, keyID),
			}

			for _, url := range urls {
				entities, err := v.fetchArmoredKeyring(ctx, url)
				if err != nil {
					lastErr = err
					continue
				}

				if !keyringMatches(entities, keyID) {
					lastErr = fmt.Errorf("no key matching fingerprint %s in keyserver response", keyID)
					continue
				}

				v.keyring = append(v.keyring, entities...)
				imported = true
				break
			}

			if imported {
				break
			}
		}

		if !imported {
			return fmt.Errorf("failed to import key %s from all keyservers: %w", keyID, lastErr)
		}
	}

	return nil
}

// ImportKeyFromFile imports a key from a local file, armored or binary
func (v *Verifier) ImportKeyFromFile(keyPath string) error {
	//nolint:gosec // G304: keyPath is user-provided for key import
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return fmt.Errorf("failed to open key file: %w", err)
	}

	entities, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		entities, err = openpgp.ReadKeyRing(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to read key: %w", err)
		}
	}

	if len(entities) == 0 {
		return fmt.Errorf("no keys found in file")
	}

	v.keyring = append(v.keyring, entities...)
	return nil
}

// VerifySignature downloads a detached signature and checks it against a
// local file using the imported keyring
func (v *Verifier) VerifySignature(ctx context.Context, filePath, sigURL string) error {
	if len(v.keyring) == 0 {
		return fmt.Errorf("no keys imported, call ImportKeys first")
	}

	sigData, err := v.fetchSignature(ctx, sigURL)
	if err != nil {
		return err
	}

	//nolint:gosec // G304: filePath is the downloaded archive being verified
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	return v.checkDetached(f, sigData)
}

// VerifySignatureFromFile checks a local detached signature file
func (v *Verifier) VerifySignatureFromFile(filePath, sigPath string) error {
	if len(v.keyring) == 0 {
		return fmt.Errorf("no keys imported, call ImportKeys first")
	}

	//nolint:gosec // G304: sigPath is user-provided for verification
	sigData, err := os.ReadFile(sigPath)
	if err != nil {
		return fmt.Errorf("failed to read signature file: %w", err)
	}

	//nolint:gosec // G304: filePath is the downloaded archive being verified
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	return v.checkDetached(f, sigData)
}

func (v *Verifier) checkDetached(data io.Reader, sigData []byte) error {
	if len(sigData) < 10 {
		return fmt.Errorf("signature too small to be valid")
	}

	var err error
	if bytes.HasPrefix(sigData, []byte(armoredSigPrefix)) {
		_, err = openpgp.CheckArmoredDetachedSignature(v.keyring, data, bytes.NewReader(sigData), nil)
	} else {
		_, err = openpgp.CheckDetachedSignature(v.keyring, data, bytes.NewReader(sigData), nil)
	}

	if err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}
	return nil
}

func (v *Verifier) fetchArmoredKeyring(ctx context.Context, url string) (openpgp.EntityList, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("keyserver returned status %d", resp.StatusCode)
	}

	entities, err := openpgp.ReadArmoredKeyRing(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return nil, err
	}
	if len(entities) == 0 {
		return nil, fmt.Errorf("no keys found in response")
	}
	return entities, nil
}

func (v *Verifier) fetchSignature(ctx context.Context, sigURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sigURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create signature request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download signature: %w", err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("signature download failed with status %d", resp.StatusCode)
	}

	// Detached signatures are tiny; a 10KB cap guards against junk
	sigData, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024))
	if err != nil {
		return nil, fmt.Errorf("failed to read signature: %w", err)
	}

	return sigData, nil
}

// keyringMatches reports whether any entity's fingerprint matches keyID,
// comparing the full fingerprint or its 16-character short form
func keyringMatches(entities openpgp.EntityList, keyID string) bool {
	for _, entity := range entities {
		fingerprint := fmt.Sprintf("%X", entity.PrimaryKey.Fingerprint)
		if strings.EqualFold(fingerprint, keyID) {
			return true
		}
		if len(fingerprint) >= 16 && strings.EqualFold(fingerprint[len(fingerprint)-16:], keyID) {
			return true
		}
	}
	return false
}
