package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/avast/retry-go"
	"github.com/lorbus/theia-srcgen/internal/utils"
	"github.com/sirupsen/logrus"
)

// httpClient is used for all artifact downloads. No overall timeout: large
// dependency archives can take minutes; interruption comes from the context.
var httpClient = &http.Client{}

// Download fetches url into destPath, creating parent directories as needed.
//
// An existing destination is accepted without any network request when it
// matches expectedSHA256, or unconditionally when no checksum was declared
// (a file that changed upstream without a checksum is kept as-is). An
// existing file failing verification is removed and fetched again. A fetch
// whose verification fails is retried once; after that the destination is
// removed and the error returned.
func Download(ctx context.Context, url, destPath, expectedSHA256 string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return err
	}

	if utils.FileExists(destPath) {
		if expectedSHA256 == "" {
			logrus.Debugf("Already exists: %s", filepath.Base(destPath))
			return nil
		}
		if ok, err := utils.VerifySHA256(destPath, expectedSHA256); err == nil && ok {
			logrus.Debugf("Already downloaded: %s", filepath.Base(destPath))
			return nil
		}
		logrus.Warnf("Checksum mismatch, re-downloading: %s", filepath.Base(destPath))
		if err := os.Remove(destPath); err != nil {
			return err
		}
	}

	logrus.Debugf("Downloading: %s", filepath.Base(destPath))

	err := retry.Do(
		func() error {
			return fetchAndVerify(ctx, url, destPath, expectedSHA256)
		},
		retry.Attempts(2),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			logrus.Warnf("Retrying download of %s: %v", filepath.Base(destPath), err)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	return nil
}

// fetchAndVerify performs one download attempt. The destination never
// survives a failed attempt.
func fetchAndVerify(ctx context.Context, url, destPath, expectedSHA256 string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected HTTP status: %s", resp.Status)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}

	_, err = io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(destPath)
		return err
	}

	if expectedSHA256 != "" {
		ok, err := utils.VerifySHA256(destPath, expectedSHA256)
		if err != nil {
			os.Remove(destPath)
			return err
		}
		if !ok {
			os.Remove(destPath)
			return fmt.Errorf("sha256 mismatch for %s", filepath.Base(destPath))
		}
	}
	return nil
}
