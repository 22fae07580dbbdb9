package entities

// Release represents one downloadable interpreter build from the release index
type Release struct {
	Version  string
	Platform string
	URL      string
	SHA256   string
}

// ReleaseIndex is the in-memory form of the CSV version table.
// It is loaded once per process and never mutated afterwards.
type ReleaseIndex struct {
	Source   string
	Releases []Release
}

// ForPlatform returns the releases available for a platform
func (idx *ReleaseIndex) ForPlatform(platform string) []Release {
	matched := make([]Release, 0, len(idx.Releases))
	for _, rel := range idx.Releases {
		if rel.Platform == platform {
			matched = append(matched, rel)
		}
	}
	return matched
}
