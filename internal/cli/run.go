package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/lorbus/theia-srcgen/internal/builder"
	"github.com/lorbus/theia-srcgen/internal/builder/deps"
	"github.com/lorbus/theia-srcgen/internal/builder/plugins"
	"github.com/lorbus/theia-srcgen/internal/builder/source"
	"github.com/lorbus/theia-srcgen/internal/copr"
	"github.com/lorbus/theia-srcgen/internal/manifest"
	"github.com/lorbus/theia-srcgen/internal/models"
	"github.com/lorbus/theia-srcgen/internal/scanner"
	"github.com/lorbus/theia-srcgen/internal/specfile"
	"github.com/lorbus/theia-srcgen/internal/utils"
	"github.com/lorbus/theia-srcgen/internal/version"
	"github.com/sirupsen/logrus"
)

// plan records which artifacts a run generates
type plan struct {
	main    bool
	plugins bool
	deps    bool
}

// computePlan decides what to generate. The --only-* flags are exclusive
// shortcuts checked in a fixed order; otherwise everything not skipped is
// generated.
func computePlan(cfg *models.Config) plan {
	switch {
	case cfg.OnlyMainSource:
		return plan{main: true}
	case cfg.OnlyPlugins:
		return plan{plugins: true}
	case cfg.OnlyDeps:
		return plan{deps: true}
	default:
		return plan{
			main:    !cfg.SkipMainSource,
			plugins: !cfg.SkipPlugins,
			deps:    !cfg.SkipDeps,
		}
	}
}

// resolveOutputDir picks the artifact destination: the explicit flag, the
// COPR result directory in COPR mode, or the current directory. The result
// is absolute and exists.
func resolveOutputDir(cfg *models.Config) (string, error) {
	dir := cfg.OutputDir
	if dir == "" {
		if cfg.Copr {
			// COPR sets COPR_RESULTDIR, older runners use resultdir
			dir = os.Getenv("COPR_RESULTDIR")
			if dir == "" {
				dir = os.Getenv("resultdir")
			}
			if dir == "" {
				dir = "/workdir/rpm"
			}
		} else {
			dir = "."
		}
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if err := utils.EnsureDir(abs); err != nil {
		return "", err
	}
	return abs, nil
}

func runGeneration(ctx context.Context, cfg *models.Config) error {
	ver, err := version.Resolve(ctx, cfg)
	if err != nil {
		return err
	}

	p := computePlan(cfg)

	outputDir, err := resolveOutputDir(cfg)
	if err != nil {
		return &models.SrcGenError{
			Type: models.ErrOutputDir,
			Err:  err,
		}
	}

	// The release number only matters in COPR mode and must be known before
	// the spec update; 0 leaves the Release line alone.
	release := 0
	if cfg.Copr {
		logrus.Info("=== Theia IDE Source Generator (COPR Mode) ===")
		logrus.Infof("Version: %s", ver)
		release = copr.NewReleaseResolver().NextRelease(ctx, ver)
		logrus.Infof("Release: %d", release)
	} else {
		logrus.Info("=== Theia IDE Source Generator ===")
		logrus.Infof("Version: %s", ver)
	}
	logrus.Infof("Output: %s", outputDir)

	workDir, err := os.MkdirTemp("", "theia-srcgen-")
	if err != nil {
		return &models.SrcGenError{
			Type: models.ErrFileOp,
			Err:  err,
		}
	}
	defer os.RemoveAll(workDir)

	run := &builder.RunCtx{
		Version: ver,
		SrcDir:  cfg.ProjectRoot,
		WorkDir: workDir,
		OutDir:  outputDir,
	}

	var steps []builder.Step
	if p.main {
		steps = append(steps, source.NewBuilder())
	}
	if p.plugins {
		steps = append(steps, plugins.NewBuilder())
	}
	if p.deps {
		steps = append(steps, deps.NewBuilder())
	}

	for _, step := range steps {
		logrus.Debugf("Running step: %s", step.Name())
		if err := step.Run(ctx, run); err != nil {
			return err
		}
	}

	if !cfg.NoUpdateSpec {
		if err := updateSpec(cfg, run, release); err != nil {
			return err
		}
	}

	if cfg.Copr {
		logrus.Info(">>> Copying spec file and patches...")
		copr.StageSpecAndPatches(cfg.ProjectRoot, run.SrcDir, outputDir)
	}

	printSummary(outputDir)
	return nil
}

// updateSpec rewrites the version fields of the project spec file from the
// resolved version and the manifests in the source tree. The source tree is
// the fresh clone when the main source step ran, so the sub-versions match
// the release being packaged rather than the local checkout.
func updateSpec(cfg *models.Config, run *builder.RunCtx, release int) error {
	specPath := filepath.Join(cfg.ProjectRoot, models.SpecFileName)
	if !utils.FileExists(specPath) {
		logrus.Warnf("Spec file not found at %s, skipping update", specPath)
		return nil
	}

	logrus.Infof(">>> Updating spec file: %s", models.SpecFileName)

	theiaVersion, electronVersion := manifest.SubVersions(filepath.Join(run.SrcDir, "package.json"))

	_, err := specfile.Update(specPath, specfile.Fields{
		Version:         run.Version,
		Release:         release,
		TheiaVersion:    theiaVersion,
		ElectronVersion: electronVersion,
	})
	if err != nil {
		return &models.SrcGenError{
			Type: models.ErrFileOp,
			Step: "spec update",
			Err:  err,
		}
	}
	return nil
}

func printSummary(outputDir string) {
	logrus.Info("=== Summary ===")
	logrus.Infof("Output directory: %s", outputDir)

	artifacts, err := scanner.Scan(outputDir)
	if err != nil {
		logrus.Warnf("Failed to scan output directory: %v", err)
		return
	}
	if len(artifacts) == 0 {
		logrus.Warn("No files generated!")
		return
	}

	logrus.Info("Generated files:")
	for _, artifact := range artifacts {
		logrus.Infof("  %s", artifact.Name)
	}

	logrus.Info("SHA256 checksums:")
	for _, artifact := range artifacts {
		if artifact.SHA256 != "" {
			logrus.Infof("  %s  %s", artifact.SHA256, artifact.Name)
		}
	}
}
