package copr

import (
	"path/filepath"
	"strings"

	"github.com/lorbus/theia-srcgen/internal/models"
	"github.com/lorbus/theia-srcgen/internal/utils"
	"github.com/otiai10/copy"
	"github.com/sirupsen/logrus"
)

// StageSpecAndPatches copies the spec file and any sibling patch files into
// outputDir so the COPR builder picks them up alongside the tarballs. The
// spec is searched in the project root, the cloned source tree and the
// working directory; misses are warnings, not failures, because a spec
// already committed to dist-git may be intentional.
func StageSpecAndPatches(projectRoot, srcDir, outputDir string) {
	candidates := []string{
		filepath.Join(projectRoot, models.SpecFileName),
		filepath.Join(srcDir, "rpm", models.SpecFileName),
		models.SpecFileName,
	}

	specPath := ""
	for _, candidate := range candidates {
		if utils.FileExists(candidate) {
			specPath = candidate
			break
		}
	}

	if specPath == "" {
		logrus.Warnf("Spec file not found in any of: %s", strings.Join(candidates, ", "))
		return
	}

	if err := copy.Copy(specPath, filepath.Join(outputDir, models.SpecFileName)); err != nil {
		logrus.Warnf("Failed to copy spec file %s: %v", specPath, err)
	} else {
		logrus.Infof("Copied %s to output directory", specPath)
	}

	stagePatches(filepath.Dir(specPath), outputDir)
}

func stagePatches(specDir, outputDir string) {
	patches, _ := filepath.Glob(filepath.Join(specDir, "*.patch"))
	if len(patches) == 0 {
		logrus.Info("No patch files found next to spec file")
		return
	}

	for _, patch := range patches {
		dest := filepath.Join(outputDir, filepath.Base(patch))
		if err := copy.Copy(patch, dest); err != nil {
			logrus.Warnf("Failed to copy patch %s: %v", patch, err)
			continue
		}
		logrus.Infof("Copied patch: %s", filepath.Base(patch))
	}
}
