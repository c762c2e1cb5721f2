package plugins

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"sort"

	"github.com/lorbus/theia-srcgen/internal/builder"
	"github.com/lorbus/theia-srcgen/internal/fetch"
	"github.com/lorbus/theia-srcgen/internal/manifest"
	"github.com/lorbus/theia-srcgen/internal/models"
	"github.com/lorbus/theia-srcgen/internal/utils"
	"github.com/sirupsen/logrus"
)

// Builder downloads the Theia plugins and VS Code built-in extensions named
// by the source tree and packs them into the plugins tarball.
type Builder struct{}

// NewBuilder creates a new plugins builder
func NewBuilder() *Builder {
	return &Builder{}
}

// Name returns the step name
func (b *Builder) Name() string {
	return "plugins"
}

// Run collects every VSIX the product bundles into a staging directory and
// packs it into theia-ide-plugins-<version>.tar.xz. Individual download
// failures are warnings; the tarball is created from whatever arrived.
func (b *Builder) Run(ctx context.Context, run *builder.RunCtx) error {
	pluginDir := filepath.Join(run.WorkDir, fmt.Sprintf("%s-plugins-%s", models.ProjectName, run.Version))
	if err := utils.EnsureDir(pluginDir); err != nil {
		return &models.SrcGenError{
			Type: models.ErrFileOp,
			Step: b.Name(),
			Err:  err,
		}
	}

	logrus.Info(">>> Downloading Theia plugins from package.json...")
	pkg, err := manifest.Read(filepath.Join(run.SrcDir, "package.json"))
	if err != nil {
		return &models.SrcGenError{
			Type: models.ErrDependencyList,
			Step: b.Name(),
			Err:  err,
		}
	}

	for _, name := range sortedKeys(pkg.TheiaPlugins) {
		url := pkg.TheiaPlugins[name]
		filename := path.Base(url)
		logrus.Infof("    %s", filename)

		dest := filepath.Join(pluginDir, filename)
		if err := fetch.Download(ctx, url, dest, ""); err != nil {
			logrus.Warnf("Failed to download %s: %v", filename, err)
		}
	}

	logrus.Info(">>> Downloading VS Code built-in extensions...")
	if err := b.downloadExtensions(ctx, run.SrcDir, pluginDir); err != nil {
		return err
	}

	logrus.Info(">>> Creating plugins tarball...")
	tarball := filepath.Join(run.OutDir, models.PluginsTarball(run.Version))
	if err := utils.CreateTarXz(pluginDir, tarball); err != nil {
		return &models.SrcGenError{
			Type: models.ErrArchiveCreate,
			Step: b.Name(),
			Err:  err,
		}
	}
	logrus.Infof("Created: %s", filepath.Base(tarball))

	return nil
}

// downloadExtensions fetches the built-in extensions listed in the flatpak
// source manifest. A missing manifest is fine; older releases do not ship one.
func (b *Builder) downloadExtensions(ctx context.Context, srcDir, pluginDir string) error {
	sourcesPath := filepath.Join(srcDir, "flatpak", "extension-sources.json")
	if !utils.FileExists(sourcesPath) {
		logrus.Debugf("No extension sources manifest at %s", sourcesPath)
		return nil
	}

	sources, err := manifest.ReadSourceList(sourcesPath)
	if err != nil {
		return &models.SrcGenError{
			Type: models.ErrDependencyList,
			Step: b.Name(),
			Err:  err,
		}
	}

	for _, src := range sources {
		if src.Type != "file" || src.Dest != "plugins" {
			continue
		}
		if src.URL == "" || src.DestFilename == "" {
			continue
		}
		logrus.Infof("    %s", src.DestFilename)

		dest := filepath.Join(pluginDir, src.DestFilename)
		if err := fetch.Download(ctx, src.URL, dest, src.SHA256); err != nil {
			logrus.Warnf("Failed to download %s: %v", src.DestFilename, err)
		}
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
