package entities

import "testing"

// TestReleaseIndex_ForPlatform tests platform filtering of the index
func TestReleaseIndex_ForPlatform(t *testing.T) {
	idx := &ReleaseIndex{
		Source: "test",
		Releases: []Release{
			{Version: "3.12.4", Platform: "linux-x86_64", URL: "https://example.com/a.tar.gz"},
			{Version: "3.12.4", Platform: "darwin-arm64", URL: "https://example.com/b.tar.gz"},
			{Version: "3.12.3", Platform: "linux-x86_64", URL: "https://example.com/c.tar.gz"},
		},
	}

	linux := idx.ForPlatform("linux-x86_64")
	if len(linux) != 2 {
		t.Fatalf("ForPlatform(linux-x86_64) returned %d releases, want 2", len(linux))
	}
	for _, rel := range linux {
		if rel.Platform != "linux-x86_64" {
			t.Errorf("ForPlatform() returned release for %s", rel.Platform)
		}
	}

	if got := idx.ForPlatform("plan9-mips"); len(got) != 0 {
		t.Errorf("ForPlatform(plan9-mips) returned %d releases, want 0", len(got))
	}
}
