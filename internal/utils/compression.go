package utils

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
)

// CreateTarGz archives srcDir into a gzip-compressed tarball at destPath.
// Entries are stored under the name of srcDir itself, so the archive
// unpacks into a single top-level directory.
func CreateTarGz(srcDir, destPath string) error {
	destFile, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", destPath, err)
	}

	gzipWriter := gzip.NewWriter(destFile)

	err = writeTarArchive(srcDir, gzipWriter)

	// The compressed tail is only written on Close; a close failure means a
	// truncated archive.
	if closeErr := gzipWriter.Close(); err == nil {
		err = closeErr
	}
	if closeErr := destFile.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", destPath, err)
	}
	return nil
}

// CreateTarXz archives srcDir into an xz-compressed tarball at destPath,
// with the same top-level directory layout as CreateTarGz.
func CreateTarXz(srcDir, destPath string) error {
	destFile, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", destPath, err)
	}

	xzWriter, err := xz.NewWriter(destFile)
	if err != nil {
		destFile.Close()
		return fmt.Errorf("failed to create xz writer: %w", err)
	}

	err = writeTarArchive(srcDir, xzWriter)

	if closeErr := xzWriter.Close(); err == nil {
		err = closeErr
	}
	if closeErr := destFile.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", destPath, err)
	}
	return nil
}

// writeTarArchive walks srcDir and writes every entry into a tar stream on
// top of the given compressing writer. Symlinks keep their literal targets.
func writeTarArchive(srcDir string, compressWriter io.Writer) error {
	tarWriter := tar.NewWriter(compressWriter)

	topDir := filepath.Base(srcDir)

	err := filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		link := ""
		if info.Mode()&os.ModeSymlink != 0 {
			if link, err = os.Readlink(path); err != nil {
				return err
			}
		}

		header, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(srcDir, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path of %q: %w", path, err)
		}
		header.Name = filepath.ToSlash(filepath.Join(topDir, relPath))

		if err := tarWriter.WriteHeader(header); err != nil {
			return err
		}

		if info.Mode().IsRegular() {
			if err := writeFileToTar(path, tarWriter); err != nil {
				return err
			}
		}
		return nil
	})

	// Close emits the trailing zero blocks, so its failure is a write failure
	if closeErr := tarWriter.Close(); err == nil {
		err = closeErr
	}
	return err
}

func writeFileToTar(path string, w io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return err
	}
	return nil
}
