package source

import (
	"context"
	"path/filepath"

	"github.com/lorbus/theia-srcgen/internal/builder"
	"github.com/lorbus/theia-srcgen/internal/fetch"
	"github.com/lorbus/theia-srcgen/internal/models"
	"github.com/lorbus/theia-srcgen/internal/utils"
	"github.com/sirupsen/logrus"
)

// Builder produces the main source tarball from a fresh clone of the
// upstream release tag.
type Builder struct{}

// NewBuilder creates a new main source builder
func NewBuilder() *Builder {
	return &Builder{}
}

// Name returns the step name
func (b *Builder) Name() string {
	return "main source"
}

// Run clones the release tag with submodules, strips the VCS metadata and
// packs the tree into theia-ide-<version>.tar.gz. The cleaned clone is left
// in run.SrcDir so later steps read manifests from the exact release.
func (b *Builder) Run(ctx context.Context, run *builder.RunCtx) error {
	logrus.Info(">>> Cloning theia-ide repository with submodules...")
	cloneDir := filepath.Join(run.WorkDir, models.ProjectName+"-"+run.Version)

	if err := fetch.CloneTag(ctx, models.UpstreamRepo, "v"+run.Version, cloneDir); err != nil {
		return &models.SrcGenError{
			Type: models.ErrSourceClone,
			Step: b.Name(),
			Err:  err,
		}
	}

	logrus.Info(">>> Cleaning up .git directories...")
	removed, err := utils.RemoveGitDirs(cloneDir)
	if err != nil {
		return &models.SrcGenError{
			Type: models.ErrFileOp,
			Step: b.Name(),
			Err:  err,
		}
	}
	logrus.Debugf("Removed %d .git directories", removed)

	logrus.Info(">>> Creating main source tarball (with submodule content)...")
	tarball := filepath.Join(run.OutDir, models.MainSourceTarball(run.Version))
	if err := utils.CreateTarGz(cloneDir, tarball); err != nil {
		return &models.SrcGenError{
			Type: models.ErrArchiveCreate,
			Step: b.Name(),
			Err:  err,
		}
	}
	logrus.Infof("Created: %s", filepath.Base(tarball))

	run.SrcDir = cloneDir
	return nil
}
