// Package services implements domain business logic and use cases.
package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ochairo/pie/internal/domain/entities"
)

// VersionService handles version comparison and release resolution logic
type VersionService struct{}

// NewVersionService creates a new version service
func NewVersionService() *VersionService {
	return &VersionService{}
}

// IsPrerelease reports whether a version string carries a pre-release
// marker. Interpreter builds use PEP 440 style suffixes: 3.13.0a4,
// 3.13.0b2, 3.13.0rc1.
func (s *VersionService) IsPrerelease(version string) bool {
	last := version
	if i := strings.LastIndex(version, "."); i >= 0 {
		last = version[i+1:]
	}
	for i, ch := range last {
		if ch >= '0' && ch <= '9' {
			continue
		}
		// Digits followed by letters means a pre-release segment
		// (e.g. "0rc1"); letters elsewhere are not a version at all.
		return i > 0
	}
	return false
}

// Compare compares two version strings segment by segment.
// Returns 1 if v1 > v2, -1 if v1 < v2, 0 if equal. Within an equal
// numeric release, a pre-release sorts below the final release.
func (s *VersionService) Compare(v1, v2 string) int {
	parts1 := strings.Split(v1, ".")
	parts2 := strings.Split(v2, ".")

	maxLen := len(parts1)
	if len(parts2) > maxLen {
		maxLen = len(parts2)
	}

	for i := 0; i < maxLen; i++ {
		num1, pre1 := splitSegment(parts1, i)
		num2, pre2 := splitSegment(parts2, i)

		if num1 != num2 {
			if num1 > num2 {
				return 1
			}
			return -1
		}

		// Same numeric value: a pre-release suffix loses to none,
		// and pre-release suffixes order by phase then number
		// (a < b < rc, rc2 < rc10).
		if pre1 != pre2 {
			if pre1 == "" {
				return 1
			}
			if pre2 == "" {
				return -1
			}
			if c := compareSuffix(pre1, pre2); c != 0 {
				return c
			}
		}
	}

	return 0
}

// splitSegment returns the numeric value and trailing pre-release suffix
// of the i-th dotted segment, zero values when the segment is absent
func splitSegment(parts []string, i int) (int, string) {
	if i >= len(parts) {
		return 0, ""
	}

	seg := parts[i]
	numEnd := 0
	for numEnd < len(seg) && seg[numEnd] >= '0' && seg[numEnd] <= '9' {
		numEnd++
	}

	num := 0
	if numEnd > 0 {
		if n, err := strconv.Atoi(seg[:numEnd]); err == nil {
			num = n
		}
	}

	return num, seg[numEnd:]
}

// compareSuffix orders pre-release suffixes: the phase letters compare
// lexically (a < b < rc) and the trailing number numerically, so rc10
// sorts above rc2
func compareSuffix(s1, s2 string) int {
	phase1, num1 := splitSuffix(s1)
	phase2, num2 := splitSuffix(s2)

	if phase1 != phase2 {
		if phase1 > phase2 {
			return 1
		}
		return -1
	}
	if num1 != num2 {
		if num1 > num2 {
			return 1
		}
		return -1
	}
	return 0
}

// splitSuffix splits a pre-release suffix into its phase letters and
// trailing number ("rc10" -> "rc", 10)
func splitSuffix(s string) (string, int) {
	i := 0
	for i < len(s) && (s[i] < '0' || s[i] > '9') {
		i++
	}

	num := 0
	if i < len(s) {
		if n, err := strconv.Atoi(s[i:]); err == nil {
			num = n
		}
	}

	return s[:i], num
}

// Matches reports whether version satisfies the requested version or
// version prefix. A request of "3.12" matches any 3.12.x release; a full
// "3.12.4" matches only itself.
func (s *VersionService) Matches(requested, version string) bool {
	if requested == version {
		return true
	}
	return strings.HasPrefix(version, requested+".")
}

// Resolve picks the highest release in the index matching the requested
// version (or prefix) for a platform. Pre-releases are skipped unless
// includePrerelease is set or the request names one exactly.
func (s *VersionService) Resolve(idx *entities.ReleaseIndex, requested, platform string, includePrerelease bool) (*entities.Release, error) {
	if requested == "" {
		return nil, fmt.Errorf("no interpreter version requested")
	}

	candidates := idx.ForPlatform(platform)

	var best *entities.Release
	for i := range candidates {
		rel := &candidates[i]
		if !s.Matches(requested, rel.Version) {
			continue
		}
		if s.IsPrerelease(rel.Version) && !includePrerelease && rel.Version != requested {
			continue
		}
		if best == nil || s.Compare(rel.Version, best.Version) > 0 {
			best = rel
		}
	}

	if best == nil {
		return nil, fmt.Errorf("no release matching %s for platform %s in index %s", requested, platform, idx.Source)
	}

	return best, nil
}

// Sorted returns the index releases for a platform in descending version
// order, optionally including pre-releases. Used by the list command.
func (s *VersionService) Sorted(idx *entities.ReleaseIndex, platform string, includePrerelease bool) []entities.Release {
	candidates := idx.Releases
	if platform != "" {
		candidates = idx.ForPlatform(platform)
	}

	releases := make([]entities.Release, 0, len(candidates))
	for _, rel := range candidates {
		if !includePrerelease && s.IsPrerelease(rel.Version) {
			continue
		}
		releases = append(releases, rel)
	}

	sort.SliceStable(releases, func(i, j int) bool {
		if c := s.Compare(releases[i].Version, releases[j].Version); c != 0 {
			return c > 0
		}
		return releases[i].Platform < releases[j].Platform
	})

	return releases
}
