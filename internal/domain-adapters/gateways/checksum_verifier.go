package gateways

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrChecksumMismatch is returned when a file's digest does not match the
// value recorded in the release index. Callers treat it as fatal before
// extraction ever starts.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// checksumVerifier implements SHA-256 digest checks in pure Go
type checksumVerifier struct{}

// NewChecksumVerifier creates a new checksum verifier
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewChecksumVerifier() *checksumVerifier {
	return &checksumVerifier{}
}

// Verify checks a file against an expected SHA-256 digest (hex, any case)
func (v *checksumVerifier) Verify(_ context.Context, filePath, expectedSum string) error {
	actualSum, err := v.Sum(filePath)
	if err != nil {
		return err
	}

	if actualSum != strings.ToLower(expectedSum) {
		return fmt.Errorf("%w for %s: expected %s, got %s", ErrChecksumMismatch, filePath, expectedSum, actualSum)
	}

	return nil
}

// Sum computes the SHA-256 digest of a file as lowercase hex
func (v *checksumVerifier) Sum(filePath string) (string, error) {
	//nolint:gosec // G304: File path is caller-provided for hashing
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
