package cli

import (
	"github.com/lorbus/theia-srcgen/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	var config models.Config

	rootCmd := &cobra.Command{
		Use:   "theia-srcgen [version]",
		Short: "Generate source tarballs for Theia IDE RPM builds",
		Long: `theia-srcgen creates the source artifacts the theia-ide RPM build
consumes:

  theia-ide-{version}.tar.gz          main source with submodules
  theia-ide-plugins-{version}.tar.xz  VSIX extensions
  theia-ide-deps-{version}.tar.xz     bundled node dependencies and electron binaries
  theia-ide-deps-{version}.json       generated sources metadata for reference

Dependencies are resolved with flatpak-node-generator, the same tool the
flatpak build uses, and downloaded for all supported architectures so one
bundle works on any target platform.

By default all sources are generated. Use the --skip-* or --only-* flags to
generate specific tarballs only.`,
		Args: cobra.MaximumNArgs(1),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Setup logging
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.InfoLevel)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// The flag wins when both the flag and the positional are given
			if config.Version == "" && len(args) > 0 {
				config.Version = args[0]
			}

			logrus.Debugf("Configuration: %+v", config)

			return runGeneration(cmd.Context(), &config)
		},
	}

	// Version selection flags
	rootCmd.Flags().StringVarP(&config.Version, "version", "v", "", "Version to generate sources for (default: local package.json)")
	rootCmd.Flags().BoolVar(&config.GitHubLatest, "github-latest", false, "Fetch latest version from GitHub instead of using local")

	// Input/Output flags
	rootCmd.Flags().StringVarP(&config.OutputDir, "output", "o", "", "Output directory (default: current directory)")
	rootCmd.Flags().StringVar(&config.ProjectRoot, "project-root", ".", "Directory containing package.json and the spec file")

	// Step selection flags
	rootCmd.Flags().BoolVar(&config.SkipMainSource, "skip-main-source", false, "Skip main source tarball generation")
	rootCmd.Flags().BoolVar(&config.SkipPlugins, "skip-plugins", false, "Skip plugins tarball generation")
	rootCmd.Flags().BoolVar(&config.SkipDeps, "skip-deps", false, "Skip dependency tarball generation")
	rootCmd.Flags().BoolVar(&config.OnlyMainSource, "only-main-source", false, "Only generate main source tarball")
	rootCmd.Flags().BoolVar(&config.OnlyPlugins, "only-plugins", false, "Only generate plugins tarball")
	rootCmd.Flags().BoolVar(&config.OnlyDeps, "only-deps", false, "Only generate deps tarball")

	// Spec handling and build mode flags
	rootCmd.Flags().BoolVar(&config.NoUpdateSpec, "no-update-spec", false, "Do not update spec file variables")
	rootCmd.Flags().BoolVar(&config.Copr, "copr", false, "COPR mode: output to $COPR_RESULTDIR and copy spec/patches")

	rootCmd.Flags().Bool("verbose", false, "Enable verbose logging")

	return rootCmd
}
