package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lorbus/theia-srcgen/internal/utils"
	"github.com/sirupsen/logrus"
)

// CloneTag makes a shallow clone of repo at the given tag into destPath,
// with all submodules.
func CloneTag(ctx context.Context, repo, tag, destPath string) error {
	return utils.RunCommand(ctx, "git", "clone", "--depth", "1",
		"--branch", tag, "--recurse-submodules", repo, destPath)
}

// CloneAtCommit clones repo at a pinned commit into destPath. A destination
// that already contains .git is accepted as-is with zero git operations.
// Partial content at the destination is removed before cloning, and nothing
// of a failed clone is left behind.
func CloneAtCommit(ctx context.Context, repo, commit, destPath string) error {
	if _, err := os.Stat(filepath.Join(destPath, ".git")); err == nil {
		logrus.Debugf("Already cloned: %s", filepath.Base(destPath))
		return nil
	}

	if _, err := os.Stat(destPath); err == nil {
		if err := os.RemoveAll(destPath); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return err
	}

	logrus.Debugf("Cloning: %s@%s", repo, shortCommit(commit))

	steps := [][]string{
		{"clone", "--depth", "1", repo, destPath},
		{"-C", destPath, "fetch", "--depth", "1", "origin", commit},
		{"-C", destPath, "checkout", commit},
	}
	for _, args := range steps {
		if err := utils.RunCommand(ctx, "git", args...); err != nil {
			os.RemoveAll(destPath)
			return fmt.Errorf("failed to clone %s: %w", repo, err)
		}
	}
	return nil
}

func shortCommit(commit string) string {
	if len(commit) > 8 {
		return commit[:8]
	}
	return commit
}
