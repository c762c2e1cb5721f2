package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lorbus/theia-srcgen/internal/models"
	"github.com/sirupsen/logrus"
)

// PackageJSON is the subset of package.json this tool reads
type PackageJSON struct {
	Version         string            `json:"version"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
	TheiaPlugins    map[string]string `json:"theiaPlugins"`
}

// Read parses the package.json at path
func Read(path string) (*PackageJSON, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var pkg PackageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &pkg, nil
}

// ReadSourceList parses a flatpak-builder source list, the format shared by
// the upstream flatpak/extension-sources.json and the output of
// flatpak-node-generator.
func ReadSourceList(path string) ([]models.DependencySource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sources []models.DependencySource
	if err := json.Unmarshal(data, &sources); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return sources, nil
}

// SubVersions extracts the Theia framework and Electron versions pinned by
// the package.json at path. The theia version is taken from the first
// @theia/-prefixed dependency in file order; the electron version from the
// electron entry in devDependencies then dependencies, falling back to
// applications/electron/package.json. Failures are logged and reported as
// empty strings, never as errors.
func SubVersions(path string) (theiaVersion, electronVersion string) {
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Warnf("Failed to read %s: %v", path, err)
		return "", ""
	}

	var root struct {
		Dependencies    json.RawMessage `json:"dependencies"`
		DevDependencies json.RawMessage `json:"devDependencies"`
	}
	if err := json.Unmarshal(data, &root); err != nil {
		logrus.Warnf("Failed to parse %s: %v", path, err)
		return "", ""
	}

	theiaVersion = firstTheiaDep(root.Dependencies)
	if theiaVersion == "" {
		theiaVersion = firstTheiaDep(root.DevDependencies)
	}

	electronVersion = electronDep(root.DevDependencies, root.Dependencies)
	if electronVersion == "" {
		// The electron pin may live in the application manifest instead
		appPkg := filepath.Join(filepath.Dir(path), "applications", "electron", "package.json")
		electronVersion = electronFromFile(appPkg)
	}

	return theiaVersion, electronVersion
}

// firstTheiaDep walks a dependency object in file order and returns the
// version of the first @theia/-prefixed entry. Go maps would lose the key
// order, so the object is scanned with a token decoder.
func firstTheiaDep(obj json.RawMessage) string {
	if len(obj) == 0 {
		return ""
	}

	dec := json.NewDecoder(bytes.NewReader(obj))
	tok, err := dec.Token()
	if err != nil {
		return ""
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return ""
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return ""
		}
		key, _ := keyTok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return ""
		}

		if strings.HasPrefix(key, "@theia/") {
			var version string
			if err := json.Unmarshal(value, &version); err != nil {
				return ""
			}
			return strings.TrimLeft(version, "^~")
		}
	}
	return ""
}

func electronDep(devDeps, deps json.RawMessage) string {
	for _, raw := range []json.RawMessage{devDeps, deps} {
		if len(raw) == 0 {
			continue
		}
		var m map[string]string
		if err := json.Unmarshal(raw, &m); err != nil {
			continue
		}
		if v, ok := m["electron"]; ok {
			return strings.TrimLeft(v, "^~")
		}
	}
	return ""
}

func electronFromFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	var root struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(data, &root); err != nil {
		logrus.Warnf("Failed to parse %s: %v", path, err)
		return ""
	}

	if v, ok := root.DevDependencies["electron"]; ok {
		return strings.TrimLeft(v, "^~")
	}
	if v, ok := root.Dependencies["electron"]; ok {
		return strings.TrimLeft(v, "^~")
	}
	return ""
}
