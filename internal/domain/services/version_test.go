package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ochairo/pie/internal/domain/entities"
)

func TestVersionService_Compare(t *testing.T) {
	s := NewVersionService()

	tests := []struct {
		name string
		v1   string
		v2   string
		want int
	}{
		{name: "equal", v1: "3.12.4", v2: "3.12.4", want: 0},
		{name: "patch greater", v1: "3.12.5", v2: "3.12.4", want: 1},
		{name: "minor lower", v1: "3.11.9", v2: "3.12.0", want: -1},
		{name: "major greater", v1: "4.0.0", v2: "3.99.99", want: 1},
		{name: "shorter equal prefix", v1: "3.12", v2: "3.12.0", want: 0},
		{name: "prerelease below final", v1: "3.13.0rc1", v2: "3.13.0", want: -1},
		{name: "final above prerelease", v1: "3.13.0", v2: "3.13.0b2", want: 1},
		{name: "rc above beta", v1: "3.13.0rc1", v2: "3.13.0b2", want: 1},
		{name: "rc10 above rc2", v1: "3.13.0rc10", v2: "3.13.0rc2", want: 1},
		{name: "rc2 below rc10", v1: "3.13.0rc2", v2: "3.13.0rc10", want: -1},
		{name: "b10 below rc2", v1: "3.13.0b10", v2: "3.13.0rc2", want: -1},
		{name: "double digit segments", v1: "3.10.0", v2: "3.9.18", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Compare(tt.v1, tt.v2))
		})
	}
}

func TestVersionService_IsPrerelease(t *testing.T) {
	s := NewVersionService()

	tests := []struct {
		version string
		want    bool
	}{
		{version: "3.12.4", want: false},
		{version: "3.13.0rc1", want: true},
		{version: "3.13.0a4", want: true},
		{version: "3.13.0b2", want: true},
		{version: "3.12", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			assert.Equal(t, tt.want, s.IsPrerelease(tt.version))
		})
	}
}

func TestVersionService_Matches(t *testing.T) {
	s := NewVersionService()

	assert.True(t, s.Matches("3.12", "3.12.4"))
	assert.True(t, s.Matches("3.12.4", "3.12.4"))
	assert.False(t, s.Matches("3.12", "3.121.0"))
	assert.False(t, s.Matches("3.12.4", "3.12.5"))
	assert.False(t, s.Matches("3.1", "3.12.4"))
}

func testIndex() *entities.ReleaseIndex {
	return &entities.ReleaseIndex{
		Source: "test",
		Releases: []entities.Release{
			{Version: "3.12.3", Platform: "linux-x86_64", URL: "https://example.com/3.12.3.tar.gz"},
			{Version: "3.12.4", Platform: "linux-x86_64", URL: "https://example.com/3.12.4.tar.gz"},
			{Version: "3.12.4", Platform: "darwin-arm64", URL: "https://example.com/3.12.4-mac.tar.gz"},
			{Version: "3.13.0rc1", Platform: "linux-x86_64", URL: "https://example.com/3.13.0rc1.tar.gz"},
			{Version: "3.11.9", Platform: "linux-x86_64", URL: "https://example.com/3.11.9.tar.gz"},
		},
	}
}

func TestVersionService_Resolve(t *testing.T) {
	s := NewVersionService()
	idx := testIndex()

	t.Run("prefix picks highest", func(t *testing.T) {
		rel, err := s.Resolve(idx, "3.12", "linux-x86_64", false)
		require.NoError(t, err)
		assert.Equal(t, "3.12.4", rel.Version)
	})

	t.Run("exact version", func(t *testing.T) {
		rel, err := s.Resolve(idx, "3.12.3", "linux-x86_64", false)
		require.NoError(t, err)
		assert.Equal(t, "3.12.3", rel.Version)
	})

	t.Run("prerelease excluded by default", func(t *testing.T) {
		_, err := s.Resolve(idx, "3.13", "linux-x86_64", false)
		assert.Error(t, err)
	})

	t.Run("prerelease included on request", func(t *testing.T) {
		rel, err := s.Resolve(idx, "3.13", "linux-x86_64", true)
		require.NoError(t, err)
		assert.Equal(t, "3.13.0rc1", rel.Version)
	})

	t.Run("numbered prereleases resolve to highest", func(t *testing.T) {
		numbered := &entities.ReleaseIndex{
			Source: "test",
			Releases: []entities.Release{
				{Version: "3.13.0rc2", Platform: "linux-x86_64", URL: "https://example.com/rc2.tar.gz"},
				{Version: "3.13.0rc10", Platform: "linux-x86_64", URL: "https://example.com/rc10.tar.gz"},
			},
		}
		rel, err := s.Resolve(numbered, "3.13", "linux-x86_64", true)
		require.NoError(t, err)
		assert.Equal(t, "3.13.0rc10", rel.Version)
	})

	t.Run("exact prerelease allowed without flag", func(t *testing.T) {
		rel, err := s.Resolve(idx, "3.13.0rc1", "linux-x86_64", false)
		require.NoError(t, err)
		assert.Equal(t, "3.13.0rc1", rel.Version)
	})

	t.Run("platform respected", func(t *testing.T) {
		rel, err := s.Resolve(idx, "3.12", "darwin-arm64", false)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/3.12.4-mac.tar.gz", rel.URL)
	})

	t.Run("unknown platform fails", func(t *testing.T) {
		_, err := s.Resolve(idx, "3.12", "plan9-mips", false)
		assert.Error(t, err)
	})

	t.Run("empty request fails", func(t *testing.T) {
		_, err := s.Resolve(idx, "", "linux-x86_64", false)
		assert.Error(t, err)
	})
}

func TestVersionService_Sorted(t *testing.T) {
	s := NewVersionService()
	idx := testIndex()

	t.Run("descending and prerelease filtered", func(t *testing.T) {
		releases := s.Sorted(idx, "linux-x86_64", false)
		require.Len(t, releases, 3)
		assert.Equal(t, "3.12.4", releases[0].Version)
		assert.Equal(t, "3.12.3", releases[1].Version)
		assert.Equal(t, "3.11.9", releases[2].Version)
	})

	t.Run("prerelease included sorts first", func(t *testing.T) {
		releases := s.Sorted(idx, "linux-x86_64", true)
		require.Len(t, releases, 4)
		assert.Equal(t, "3.13.0rc1", releases[0].Version)
	})

	t.Run("all platforms", func(t *testing.T) {
		releases := s.Sorted(idx, "", false)
		assert.Len(t, releases, 4)
	})
}
