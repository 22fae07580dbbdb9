package entities

// Manifest is the user-facing declaration of what the environment should
// contain: the requested interpreter version from pyver.txt plus the
// dependency declarations from requirements.txt and requirements-files.txt.
type Manifest struct {
	// RequestedVersion is the interpreter version (or version prefix,
	// e.g. "3.12") from the first line of pyver.txt.
	RequestedVersion string
	// OverrideURL, when set, bypasses index resolution and downloads the
	// archive directly from this URL. Second line of pyver.txt.
	OverrideURL string
	// RequirementsFiles lists the pip requirements files to install,
	// in order. Empty when the project declares no dependencies.
	RequirementsFiles []string
}

// HasDependencies reports whether any requirements files are declared
func (m *Manifest) HasDependencies() bool {
	return len(m.RequirementsFiles) > 0
}
