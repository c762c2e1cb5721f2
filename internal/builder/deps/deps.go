package deps

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/lorbus/theia-srcgen/internal/builder"
	"github.com/lorbus/theia-srcgen/internal/fetch"
	"github.com/lorbus/theia-srcgen/internal/manifest"
	"github.com/lorbus/theia-srcgen/internal/models"
	"github.com/lorbus/theia-srcgen/internal/utils"
	"github.com/sirupsen/logrus"
)

const (
	listerName = "flatpak-node-generator"

	// Fork carrying https://github.com/flatpak/flatpak-builder-tools/pull/495
	listerInstallSpec = "git+https://github.com/LorbusChris/flatpak-builder-tools.git@ripgrep-fix#subdirectory=node"
)

// Builder resolves the node dependency tree with flatpak-node-generator,
// downloads every listed source for all supported architectures and packs
// the result into the dependency tarball.
type Builder struct{}

// NewBuilder creates a new dependency builder
func NewBuilder() *Builder {
	return &Builder{}
}

// Name returns the step name
func (b *Builder) Name() string {
	return "deps"
}

// Run produces theia-ide-deps-<version>.tar.xz plus the JSON source manifest
// it was built from.
func (b *Builder) Run(ctx context.Context, run *builder.RunCtx) error {
	logrus.Info(">>> Generating dependency tarball with flatpak-node-generator...")

	if err := b.ensureLister(ctx); err != nil {
		return err
	}

	sourcesJSON := filepath.Join(run.WorkDir, fmt.Sprintf("deps-%s.json", run.Version))
	yarnLock := filepath.Join(run.SrcDir, "yarn.lock")

	logrus.Info("Analyzing yarn.lock and generating sources...")
	err := utils.RunCommand(ctx, listerName,
		"yarn", yarnLock, "--electron-ffmpeg", "archive", "-o", sourcesJSON)
	if err != nil {
		return &models.SrcGenError{
			Type: models.ErrDependencyList,
			Step: b.Name(),
			Err:  err,
		}
	}

	depsDir := filepath.Join(run.WorkDir, fmt.Sprintf("%s-deps-%s", models.ProjectName, run.Version))

	logrus.Info(">>> Downloading dependencies...")
	logrus.Info("    (This may take several minutes)")
	if _, err := b.DownloadAll(ctx, sourcesJSON, depsDir); err != nil {
		return err
	}

	logrus.Info(">>> Creating dependency tarball...")
	tarball := filepath.Join(run.OutDir, models.DepsTarball(run.Version))
	if err := utils.CreateTarXz(depsDir, tarball); err != nil {
		return &models.SrcGenError{
			Type: models.ErrArchiveCreate,
			Step: b.Name(),
			Err:  err,
		}
	}
	logrus.Infof("Created: %s", filepath.Base(tarball))

	manifestCopy := filepath.Join(run.OutDir, models.DepsManifest(run.Version))
	if err := utils.CopyFile(sourcesJSON, manifestCopy); err != nil {
		return &models.SrcGenError{
			Type: models.ErrFileOp,
			Step: b.Name(),
			Err:  err,
		}
	}
	logrus.Infof("Created: %s (for reference)", filepath.Base(manifestCopy))

	return nil
}

// DownloadAll fetches every source in the manifest into outputDir for all
// supported architectures at once and returns the tally. It fails only when
// at least one required source could not be retrieved; architecture-filtered
// sources that match none of the supported targets are skipped.
func (b *Builder) DownloadAll(ctx context.Context, sourcesJSON, outputDir string) (Stats, error) {
	var stats Stats

	sources, err := manifest.ReadSourceList(sourcesJSON)
	if err != nil {
		return stats, &models.SrcGenError{
			Type: models.ErrDependencyList,
			Step: b.Name(),
			Err:  err,
		}
	}

	if err := utils.EnsureDir(outputDir); err != nil {
		return stats, &models.SrcGenError{
			Type: models.ErrFileOp,
			Step: b.Name(),
			Err:  err,
		}
	}

	logrus.Infof("Downloading dependencies to: %s", outputDir)
	logrus.Infof("Architectures: %s (all supported)", strings.Join(models.SupportedArches, ", "))

	for _, src := range sources {
		switch src.Type {
		case "git":
			if src.URL == "" || src.Commit == "" || src.Dest == "" {
				continue
			}
			dest := filepath.Join(outputDir, src.Dest)
			if err := fetch.CloneAtCommit(ctx, src.URL, src.Commit, dest); err != nil {
				logrus.Warnf("%v", err)
				stats.Failed++
				continue
			}
			stats.Cloned++

		case "file":
			if !src.MatchesArch(models.SupportedArches) {
				stats.SkippedArch++
				continue
			}
			if src.URL == "" || src.DestFilename == "" {
				continue
			}
			dest := filepath.Join(outputDir, src.Dest, src.DestFilename)
			if err := fetch.Download(ctx, src.URL, dest, src.SHA256); err != nil {
				logrus.Warnf("%v", err)
				stats.Failed++
				continue
			}
			stats.Downloaded++
		}
	}

	stats.Log()

	if stats.Failed > 0 {
		return stats, &models.SrcGenError{
			Type: models.ErrDependencyDownload,
			Step: b.Name(),
			Err:  fmt.Errorf("%d of %d sources failed to download", stats.Failed, len(sources)),
		}
	}
	return stats, nil
}

// ensureLister makes flatpak-node-generator runnable, installing it via pipx
// when missing. pipx places binaries in ~/.local/bin, which a fresh build
// environment may not have on PATH yet.
func (b *Builder) ensureLister(ctx context.Context) error {
	if _, err := exec.LookPath(listerName); err == nil {
		return nil
	}

	logrus.Infof("%s not found. Installing via pipx...", listerName)

	if _, err := exec.LookPath("pipx"); err != nil {
		return &models.SrcGenError{
			Type: models.ErrMissingTool,
			Step: b.Name(),
			Err:  fmt.Errorf("pipx not found, install it first: https://pipx.pypa.io/stable/installation/"),
		}
	}

	if err := utils.RunCommand(ctx, "pipx", "install", listerInstallSpec); err != nil {
		return &models.SrcGenError{
			Type: models.ErrMissingTool,
			Step: b.Name(),
			Err:  fmt.Errorf("failed to install %s: %w", listerName, err),
		}
	}
	logrus.Infof("Successfully installed %s", listerName)

	if home, err := os.UserHomeDir(); err == nil {
		pipxBin := filepath.Join(home, ".local", "bin")
		if utils.DirExists(pipxBin) {
			os.Setenv("PATH", pipxBin+string(os.PathListSeparator)+os.Getenv("PATH"))
			logrus.Infof("Updated PATH to include %s", pipxBin)
		}
	}

	if _, err := exec.LookPath(listerName); err != nil {
		return &models.SrcGenError{
			Type: models.ErrMissingTool,
			Step: b.Name(),
			Err:  fmt.Errorf("%s still not found after installation (PATH: %s)", listerName, os.Getenv("PATH")),
		}
	}
	return nil
}
