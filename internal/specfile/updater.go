package specfile

import (
	"fmt"
	"os"
	"regexp"

	"github.com/sirupsen/logrus"
)

// Fields carries the values to write into the spec file. Empty strings and
// a zero Release leave the corresponding lines untouched.
type Fields struct {
	Version         string
	Release         int
	TheiaVersion    string
	ElectronVersion string
}

// Spec files may align values with tabs or multiple spaces, so the field
// patterns match any run of whitespace after the key.
var (
	versionRe  = regexp.MustCompile(`(?m)^Version:\s+.*$`)
	releaseRe  = regexp.MustCompile(`(?m)^Release:\s+.*$`)
	theiaRe    = regexp.MustCompile(`(?m)^%global theia_version\s+.*$`)
	electronRe = regexp.MustCompile(`(?m)^%global electron_version\s+.*$`)
)

// Update rewrites the targeted declaration lines of the spec file at path,
// leaving every other byte as it was. A targeted line that does not exist
// is silently left unmodified, and the file is only written when its
// content actually changed. Reports whether the file was modified.
func Update(path string, fields Fields) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	content := string(data)
	updated := content

	if fields.Version != "" {
		updated = versionRe.ReplaceAllString(updated, "Version:        "+fields.Version)
	}
	if fields.Release > 0 {
		updated = releaseRe.ReplaceAllString(updated,
			fmt.Sprintf("Release:        %d%%{?dist}", fields.Release))
	}
	if fields.TheiaVersion != "" {
		updated = theiaRe.ReplaceAllString(updated, "%global theia_version "+fields.TheiaVersion)
	}
	if fields.ElectronVersion != "" {
		updated = electronRe.ReplaceAllString(updated, "%global electron_version "+fields.ElectronVersion)
	}

	if updated == content {
		logrus.Info("No spec file changes needed")
		return false, nil
	}

	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		return false, err
	}

	if fields.Version != "" {
		logrus.Infof("Updated Version: %s", fields.Version)
	}
	if fields.Release > 0 {
		logrus.Infof("Updated Release: %d%%{?dist}", fields.Release)
	}
	if fields.TheiaVersion != "" {
		logrus.Infof("Updated theia_version: %s", fields.TheiaVersion)
	}
	if fields.ElectronVersion != "" {
		logrus.Infof("Updated electron_version: %s", fields.ElectronVersion)
	}
	return true, nil
}
