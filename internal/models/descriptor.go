package models

// DependencySource is one entry of a flatpak-builder source list, as
// produced by flatpak-node-generator and as found in the upstream
// extension-sources.json. The Type field tags the union:
//
//   - "file": URL, Dest, DestFilename, optional SHA256, optional OnlyArches
//   - "git":  URL, Commit, Dest
//
// Entries with other types exist in the wild (inline data, patches) and are
// ignored by this tool.
type DependencySource struct {
	Type         string   `json:"type"`
	URL          string   `json:"url,omitempty"`
	Commit       string   `json:"commit,omitempty"`
	Dest         string   `json:"dest,omitempty"`
	DestFilename string   `json:"dest-filename,omitempty"`
	SHA256       string   `json:"sha256,omitempty"`
	OnlyArches   []string `json:"only-arches,omitempty"`
}

// MatchesArch reports whether the source applies to any of the given
// architectures. A source without an only-arches restriction applies to all.
func (s *DependencySource) MatchesArch(arches []string) bool {
	if len(s.OnlyArches) == 0 {
		return true
	}
	for _, want := range arches {
		for _, have := range s.OnlyArches {
			if want == have {
				return true
			}
		}
	}
	return false
}
