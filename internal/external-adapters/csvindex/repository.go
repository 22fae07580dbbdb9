package csvindex

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ochairo/pie/internal/domain/entities"
)

// Size cap for the downloaded index; the table is small and anything
// larger indicates a wrong URL.
const maxIndexSize = 8 * 1024 * 1024

// Repository serves the release index from an HTTP URL or a local file.
// The index is fetched at most once per process and cached in memory.
type Repository struct {
	source     string
	httpClient *http.Client
	parser     *Parser

	once sync.Once
	idx  *entities.ReleaseIndex
	err  error
}

// NewRepository creates a release repository backed by source, which is
// either an http(s) URL or a local file path
func NewRepository(source string) *Repository {
	return &Repository{
		source: source,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		parser: NewParser(),
	}
}

// Index returns the release index, loading it on first use
func (r *Repository) Index(ctx context.Context) (*entities.ReleaseIndex, error) {
	r.once.Do(func() {
		r.idx, r.err = r.load(ctx)
	})
	return r.idx, r.err
}

func (r *Repository) load(ctx context.Context) (*entities.ReleaseIndex, error) {
	if strings.HasPrefix(r.source, "http://") || strings.HasPrefix(r.source, "https://") {
		data, err := r.fetch(ctx)
		if err != nil {
			return nil, err
		}
		return r.parser.Parse(bytes.NewReader(data), r.source)
	}

	//nolint:gosec // G304: source is the user-selected index location
	f, err := os.Open(r.source)
	if err != nil {
		return nil, fmt.Errorf("failed to open release index: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	return r.parser.Parse(f, r.source)
}

func (r *Repository) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create index request: %w", err)
	}
	req.Header.Set("User-Agent", "pie/1.0")

	resp, err := doWithRetry(r.httpClient, req)
	if err != nil {
		return nil, fmt.Errorf("index download failed: %w", err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("index download failed: HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxIndexSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read index response: %w", err)
	}

	return data, nil
}
