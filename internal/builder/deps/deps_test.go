package deps

import (
	"archive/tar"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/lorbus/theia-srcgen/internal/builder"
	"github.com/lorbus/theia-srcgen/internal/models"
	"github.com/lorbus/theia-srcgen/internal/utils"
	"github.com/ulikunitz/xz"
)

func sha256Hex(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

// fileServer serves fixed bodies by path and records per-path hit counts.
func fileServer(t *testing.T, files map[string]string) (*httptest.Server, map[string]int) {
	t.Helper()
	hits := make(map[string]int)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits[r.URL.Path]++
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, hits
}

func writeSources(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "sources.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write sources file: %v", err)
	}
	return path
}

// readTarXzNames returns the set of entry names in an xz tarball.
func readTarXzNames(t *testing.T, tarball string) map[string]bool {
	t.Helper()

	f, err := os.Open(tarball)
	if err != nil {
		t.Fatalf("Failed to open tarball: %v", err)
	}
	defer f.Close()

	xzr, err := xz.NewReader(f)
	if err != nil {
		t.Fatalf("Failed to open xz stream: %v", err)
	}

	names := make(map[string]bool)
	tr := tar.NewReader(xzr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Failed to read tar entry: %v", err)
		}
		names[hdr.Name] = true
	}
	return names
}

func TestDownloadAllAppliesSkipRules(t *testing.T) {
	srv, hits := fileServer(t, map[string]string{
		"/good.tgz":   "good content",
		"/skipme.tgz": "never fetched",
	})

	tmpDir := t.TempDir()
	sources := writeSources(t, tmpDir, fmt.Sprintf(`[
		{"type": "file", "url": "%[1]s/skipme.tgz", "dest-filename": "skipme.tgz", "only-arches": ["i386"]},
		{"type": "file", "dest-filename": "no-url.tgz"},
		{"type": "file", "url": "%[1]s/good.tgz", "dest": "npm-cache", "dest-filename": "good.tgz", "sha256": "%[2]s"},
		{"type": "git", "url": "%[1]s/repo.git", "dest": "deps/repo"},
		{"type": "inline", "contents": "ignored"}
	]`, srv.URL, sha256Hex("good content")))

	outDir := filepath.Join(tmpDir, "bundle")
	stats, err := NewBuilder().DownloadAll(context.Background(), sources, outDir)
	if err != nil {
		t.Fatalf("DownloadAll failed: %v", err)
	}

	// One download, one architecture skip; incomplete entries count nowhere
	want := Stats{Downloaded: 1, SkippedArch: 1}
	if stats != want {
		t.Errorf("Wrong stats: got %+v, want %+v", stats, want)
	}

	// The unrestricted file lands in its dest subdirectory
	data, err := os.ReadFile(filepath.Join(outDir, "npm-cache", "good.tgz"))
	if err != nil {
		t.Fatalf("Downloaded file missing: %v", err)
	}
	if string(data) != "good content" {
		t.Errorf("Wrong content: %q", data)
	}

	// Architecture-filtered and incomplete entries cause no traffic at all
	if hits["/skipme.tgz"] != 0 {
		t.Errorf("Arch-restricted source was fetched %d times", hits["/skipme.tgz"])
	}
	if hits["/good.tgz"] != 1 {
		t.Errorf("Expected exactly 1 fetch of good.tgz, got %d", hits["/good.tgz"])
	}

	// The git source misses its commit, so no clone directory may appear
	if utils.DirExists(filepath.Join(outDir, "deps", "repo")) {
		t.Error("Incomplete git source was cloned")
	}
}

func TestDownloadAllFailsOnChecksumMismatch(t *testing.T) {
	srv, hits := fileServer(t, map[string]string{
		"/good.tgz": "good content",
		"/bad.tgz":  "tampered content",
	})

	tmpDir := t.TempDir()
	sources := writeSources(t, tmpDir, fmt.Sprintf(`[
		{"type": "file", "url": "%[1]s/good.tgz", "dest-filename": "good.tgz", "sha256": "%[2]s"},
		{"type": "file", "url": "%[1]s/bad.tgz", "dest-filename": "bad.tgz", "sha256": "%[3]s"}
	]`, srv.URL, sha256Hex("good content"), sha256Hex("expected content")))

	outDir := filepath.Join(tmpDir, "bundle")
	stats, err := NewBuilder().DownloadAll(context.Background(), sources, outDir)
	if err == nil {
		t.Fatal("Expected failure when a source cannot be verified")
	}

	var srcErr *models.SrcGenError
	if !errors.As(err, &srcErr) {
		t.Fatalf("Expected a typed error, got %T", err)
	}
	if srcErr.Type != models.ErrDependencyDownload {
		t.Errorf("Expected ErrDependencyDownload, got %s", srcErr.Type)
	}
	if stats.Downloaded != 1 || stats.Failed != 1 {
		t.Errorf("Wrong stats: %+v", stats)
	}

	// The good source was still downloaded before the pass failed
	if !utils.FileExists(filepath.Join(outDir, "good.tgz")) {
		t.Error("Good source missing")
	}
	if utils.FileExists(filepath.Join(outDir, "bad.tgz")) {
		t.Error("Unverifiable source left behind")
	}
	if hits["/bad.tgz"] != 2 {
		t.Errorf("Expected 2 fetch attempts for the bad source, got %d", hits["/bad.tgz"])
	}
}

func TestRunCreatesDepsArtifacts(t *testing.T) {
	payload := "registry tarball bytes"
	srv, _ := fileServer(t, map[string]string{"/pkg-1.0.0.tgz": payload})

	tmpDir := t.TempDir()
	srcDir := filepath.Join(tmpDir, "src")
	workDir := filepath.Join(tmpDir, "work")
	outDir := filepath.Join(tmpDir, "out")
	binDir := filepath.Join(tmpDir, "bin")
	for _, dir := range []string{srcDir, workDir, outDir, binDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create %s: %v", dir, err)
		}
	}

	if err := os.WriteFile(filepath.Join(srcDir, "yarn.lock"), []byte("# yarn lockfile v1\n"), 0644); err != nil {
		t.Fatalf("Failed to write yarn.lock: %v", err)
	}

	// Stand-in for flatpak-node-generator: writes a fixed source list to
	// whatever path follows -o.
	manifest := fmt.Sprintf(
		`[{"type": "file", "url": "%s/pkg-1.0.0.tgz", "dest": "npm-cache", "dest-filename": "pkg-1.0.0.tgz", "sha256": "%s"}]`,
		srv.URL, sha256Hex(payload))
	script := "#!/bin/sh\n" +
		"out=\"\"\n" +
		"while [ $# -gt 0 ]; do\n" +
		"  if [ \"$1\" = \"-o\" ]; then out=\"$2\"; fi\n" +
		"  shift\n" +
		"done\n" +
		"cat > \"$out\" <<'EOF'\n" +
		manifest + "\n" +
		"EOF\n"
	if err := os.WriteFile(filepath.Join(binDir, "flatpak-node-generator"), []byte(script), 0755); err != nil {
		t.Fatalf("Failed to write fake generator: %v", err)
	}
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))

	run := &builder.RunCtx{
		Version: "1.0.0",
		SrcDir:  srcDir,
		WorkDir: workDir,
		OutDir:  outDir,
	}
	if err := NewBuilder().Run(context.Background(), run); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// The source list is preserved beside the tarball for reference
	manifestCopy := filepath.Join(outDir, "theia-ide-deps-1.0.0.json")
	data, err := os.ReadFile(manifestCopy)
	if err != nil {
		t.Fatalf("Manifest copy missing: %v", err)
	}
	if string(data) != manifest+"\n" {
		t.Errorf("Manifest copy does not match generator output: %q", data)
	}

	// The tarball unpacks into a versioned directory holding the bundle
	names := readTarXzNames(t, filepath.Join(outDir, "theia-ide-deps-1.0.0.tar.xz"))
	if !names["theia-ide-deps-1.0.0/npm-cache/pkg-1.0.0.tgz"] {
		t.Errorf("Downloaded dependency missing from tarball, entries: %v", names)
	}
}
