package scanner

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/lorbus/theia-srcgen/internal/models"
	"github.com/lorbus/theia-srcgen/internal/utils"
	"github.com/sirupsen/logrus"
)

// ArtifactType represents the type of generated artifact
type ArtifactType int

const (
	TypeUnknown ArtifactType = iota
	TypeMainSource
	TypePlugins
	TypeDeps
	TypeDepsManifest
	TypeSpecFile
)

// String returns the string representation of ArtifactType
func (at ArtifactType) String() string {
	switch at {
	case TypeMainSource:
		return "source"
	case TypePlugins:
		return "plugins"
	case TypeDeps:
		return "deps"
	case TypeDepsManifest:
		return "deps-manifest"
	case TypeSpecFile:
		return "spec"
	default:
		return "unknown"
	}
}

// Artifact represents a generated file found in the output directory
type Artifact struct {
	Path   string
	Name   string
	Type   ArtifactType
	Size   int64
	SHA256 string
}

// summaryPatterns lists the artifact globs in report order
var summaryPatterns = []string{
	models.ProjectName + "-*.tar.*",
	models.ProjectName + "-*.json",
	"*.spec",
}

// Scan collects the generated artifacts in outputDir, with a checksum for
// everything except spec files.
func Scan(outputDir string) ([]Artifact, error) {
	var artifacts []Artifact

	for _, pattern := range summaryPatterns {
		matches, err := filepath.Glob(filepath.Join(outputDir, pattern))
		if err != nil {
			return nil, err
		}
		sort.Strings(matches)

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil || info.IsDir() {
				continue
			}

			artifact := Artifact{
				Path: match,
				Name: filepath.Base(match),
				Type: DetectArtifactType(match),
				Size: info.Size(),
			}

			if artifact.Type != TypeSpecFile {
				sum, err := utils.FileSHA256(match)
				if err != nil {
					logrus.Warnf("Failed to checksum %s: %v", match, err)
				} else {
					artifact.SHA256 = sum
				}
			}

			artifacts = append(artifacts, artifact)
		}
	}

	return artifacts, nil
}
