package specfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const specFixture = `%global theia_version 1.63.0
%global electron_version 37.1.0
%global debug_package %{nil}

Name:           theia-ide
Version:        1.63.100
Release:        2%{?dist}
Summary:        Eclipse Theia IDE

License:        EPL-2.0
URL:            https://theia-ide.org
Source0:        theia-ide-%{version}.tar.gz

%description
Theia IDE desktop application.
`

func writeSpec(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "theia-ide.spec")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write spec file: %v", err)
	}
	return path
}

func TestUpdateRewritesFields(t *testing.T) {
	path := writeSpec(t, specFixture)

	changed, err := Update(path, Fields{
		Version:         "1.64.0",
		Release:         5,
		TheiaVersion:    "1.64.0",
		ElectronVersion: "37.2.3",
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !changed {
		t.Error("Expected the spec file to be reported as changed")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read spec file: %v", err)
	}
	content := string(data)

	for _, want := range []string{
		"Version:        1.64.0\n",
		"Release:        5%{?dist}\n",
		"%global theia_version 1.64.0\n",
		"%global electron_version 37.2.3\n",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("Spec file missing %q", want)
		}
	}

	// Unrelated lines survive byte for byte
	for _, keep := range []string{
		"Name:           theia-ide",
		"Source0:        theia-ide-%{version}.tar.gz",
		"%global debug_package %{nil}",
	} {
		if !strings.Contains(content, keep) {
			t.Errorf("Spec file lost unrelated line %q", keep)
		}
	}
}

func TestUpdateIsIdempotent(t *testing.T) {
	path := writeSpec(t, specFixture)
	fields := Fields{Version: "1.64.0", TheiaVersion: "1.64.0"}

	changed, err := Update(path, fields)
	if err != nil {
		t.Fatalf("First update failed: %v", err)
	}
	if !changed {
		t.Fatal("First update reported no change")
	}

	before, _ := os.ReadFile(path)

	changed, err = Update(path, fields)
	if err != nil {
		t.Fatalf("Second update failed: %v", err)
	}
	if changed {
		t.Error("Second update with identical fields reported a change")
	}

	after, _ := os.ReadFile(path)
	if string(before) != string(after) {
		t.Error("Second update modified the file")
	}
}

func TestUpdateLeavesReleaseAloneWithoutNumber(t *testing.T) {
	path := writeSpec(t, specFixture)

	if _, err := Update(path, Fields{Version: "1.64.0"}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "Release:        2%{?dist}") {
		t.Error("Release line was modified without a release number")
	}
}

func TestUpdateToleratesMissingLines(t *testing.T) {
	// A stripped-down spec without the %global declarations
	path := writeSpec(t, "Name: theia-ide\nVersion:	1.0.0\nRelease: 1%{?dist}\n")

	changed, err := Update(path, Fields{
		Version:         "2.0.0",
		TheiaVersion:    "2.0.0",
		ElectronVersion: "40.0.0",
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !changed {
		t.Error("Expected a change from the version rewrite")
	}

	data, _ := os.ReadFile(path)
	content := string(data)
	if !strings.Contains(content, "Version:        2.0.0") {
		t.Error("Version line not rewritten")
	}
	if strings.Contains(content, "%global") {
		t.Errorf("Missing %%global lines must not be invented")
	}
}

func TestUpdateMissingFile(t *testing.T) {
	_, err := Update(filepath.Join(t.TempDir(), "absent.spec"), Fields{Version: "1.0.0"})
	if err == nil {
		t.Fatal("Expected an error for a missing spec file")
	}
}
