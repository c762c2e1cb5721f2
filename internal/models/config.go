package models

import "fmt"

// Upstream coordinates for the Theia IDE product.
const (
	ProjectName  = "theia-ide"
	UpstreamRepo = "https://github.com/eclipse-theia/theia-ide.git"
	TagsAPIURL   = "https://api.github.com/repos/eclipse-theia/theia-ide/tags"
)

// SpecFileName is the RPM spec file all runs read and update.
const SpecFileName = ProjectName + ".spec"

// SupportedArches lists the CPU architectures the dependency bundle is
// fetched for. File sources restricted by only-arches are matched against
// this set, so a bundle built on any host works on every listed target.
var SupportedArches = []string{"x86_64", "aarch64"}

// Config contains the settings for one generation run
type Config struct {
	// Version selection
	Version      string // explicit version; empty means resolve
	GitHubLatest bool   // resolve from the latest GitHub tag

	// Input/Output
	ProjectRoot string // directory holding package.json and the spec file
	OutputDir   string // artifact destination; empty means resolve per mode

	// Step selection
	SkipMainSource bool
	SkipPlugins    bool
	SkipDeps       bool
	OnlyMainSource bool
	OnlyPlugins    bool
	OnlyDeps       bool

	// Spec handling
	NoUpdateSpec bool

	// COPR build mode: release-number inference plus spec/patch staging
	Copr bool
}

// Deterministic artifact names, keyed by the resolved version.

// MainSourceTarball returns the main source tarball name for a version.
func MainSourceTarball(version string) string {
	return fmt.Sprintf("%s-%s.tar.gz", ProjectName, version)
}

// PluginsTarball returns the plugins tarball name for a version.
func PluginsTarball(version string) string {
	return fmt.Sprintf("%s-plugins-%s.tar.xz", ProjectName, version)
}

// DepsTarball returns the dependency tarball name for a version.
func DepsTarball(version string) string {
	return fmt.Sprintf("%s-deps-%s.tar.xz", ProjectName, version)
}

// DepsManifest returns the name of the JSON manifest preserved beside the
// dependency tarball.
func DepsManifest(version string) string {
	return fmt.Sprintf("%s-deps-%s.json", ProjectName, version)
}
