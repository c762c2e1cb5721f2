package utils

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/sirupsen/logrus"
)

// RunCommand runs a program and waits for it to finish. Output is streamed
// to the console at debug level and captured otherwise; captured output is
// included in the returned error on failure.
func RunCommand(ctx context.Context, program string, args ...string) error {
	cmd := exec.CommandContext(ctx, program, args...)

	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("%s failed: %w", program, err)
		}
		return nil
	}

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w: %s", program, err, bytes.TrimSpace(output.Bytes()))
	}
	return nil
}

// RunCommandOutput runs a program and returns its stdout
func RunCommandOutput(ctx context.Context, program string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, program, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s failed: %w: %s", program, err, bytes.TrimSpace(stderr.Bytes()))
	}
	return stdout.String(), nil
}
