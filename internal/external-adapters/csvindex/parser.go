// Package csvindex provides parsing and repository access for the CSV
// release index: the flat table of downloadable interpreter archives keyed
// by version and platform.
package csvindex

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ochairo/pie/internal/domain/entities"
)

// Column layout of the index. A header row is required so the format can
// grow columns without breaking older tools.
var expectedHeader = []string{"version", "platform", "url", "sha256"}

// Parser parses CSV release index data
type Parser struct{}

// NewParser creates a new index parser
func NewParser() *Parser {
	return &Parser{}
}

// Parse reads CSV index data into a ReleaseIndex. Malformed rows are
// skipped with a warning rather than failing the whole index.
func (p *Parser) Parse(r io.Reader, source string) (*entities.ReleaseIndex, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("release index %s is empty", source)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read index header: %w", err)
	}

	if err := validateHeader(header); err != nil {
		return nil, fmt.Errorf("release index %s: %w", source, err)
	}

	idx := &entities.ReleaseIndex{Source: source}

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			slog.Warn("Skipping malformed index row", "source", source, "line", line, "error", err)
			continue
		}

		rel, err := parseRecord(record)
		if err != nil {
			slog.Warn("Skipping invalid index row", "source", source, "line", line, "error", err)
			continue
		}

		idx.Releases = append(idx.Releases, rel)
	}

	if len(idx.Releases) == 0 {
		return nil, fmt.Errorf("release index %s contains no usable rows", source)
	}

	return idx, nil
}

func validateHeader(header []string) error {
	if len(header) < len(expectedHeader) {
		return fmt.Errorf("header has %d columns, want at least %d", len(header), len(expectedHeader))
	}
	for i, want := range expectedHeader {
		if !strings.EqualFold(strings.TrimSpace(header[i]), want) {
			return fmt.Errorf("header column %d is %q, want %q", i+1, header[i], want)
		}
	}
	return nil
}

func parseRecord(record []string) (entities.Release, error) {
	if len(record) < 4 {
		return entities.Release{}, fmt.Errorf("row has %d columns, want 4", len(record))
	}

	rel := entities.Release{
		Version:  strings.TrimSpace(record[0]),
		Platform: strings.TrimSpace(record[1]),
		URL:      strings.TrimSpace(record[2]),
		SHA256:   strings.ToLower(strings.TrimSpace(record[3])),
	}

	if rel.Version == "" {
		return entities.Release{}, fmt.Errorf("missing version")
	}
	if rel.Platform == "" {
		return entities.Release{}, fmt.Errorf("missing platform")
	}
	if !strings.Contains(rel.URL, "://") {
		return entities.Release{}, fmt.Errorf("invalid download URL: %q", rel.URL)
	}
	if rel.SHA256 != "" && len(rel.SHA256) != 64 {
		return entities.Release{}, fmt.Errorf("sha256 has length %d, want 64", len(rel.SHA256))
	}

	return rel, nil
}
