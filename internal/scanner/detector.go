package scanner

import (
	"path/filepath"
	"strings"

	"github.com/lorbus/theia-srcgen/internal/models"
)

// DetectArtifactType classifies an artifact by its file name
func DetectArtifactType(path string) ArtifactType {
	name := filepath.Base(path)

	if strings.HasSuffix(name, ".spec") {
		return TypeSpecFile
	}

	if strings.HasPrefix(name, models.ProjectName+"-deps-") {
		if strings.HasSuffix(name, ".json") {
			return TypeDepsManifest
		}
		if strings.Contains(name, ".tar.") {
			return TypeDeps
		}
		return TypeUnknown
	}

	if strings.HasPrefix(name, models.ProjectName+"-plugins-") && strings.Contains(name, ".tar.") {
		return TypePlugins
	}

	if strings.HasPrefix(name, models.ProjectName+"-") && strings.Contains(name, ".tar.") {
		return TypeMainSource
	}

	return TypeUnknown
}
