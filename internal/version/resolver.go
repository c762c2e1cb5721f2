package version

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	goVersion "github.com/hashicorp/go-version"
	"github.com/lorbus/theia-srcgen/internal/manifest"
	"github.com/lorbus/theia-srcgen/internal/models"
	"github.com/sirupsen/logrus"
)

// tagsClient bounds the tag-listing request. Artifact downloads elsewhere
// run unbounded.
var tagsClient = &http.Client{Timeout: 10 * time.Second}

// githubTag is one entry of the GitHub tags API response
type githubTag struct {
	Name string `json:"name"`
}

// Resolve determines the version to generate sources for: the explicit
// version when one was given, the latest GitHub tag when requested, and the
// version field of the project's package.json otherwise. Resolution runs
// fresh on every call.
func Resolve(ctx context.Context, cfg *models.Config) (string, error) {
	if cfg.Version != "" {
		return cfg.Version, nil
	}

	if cfg.GitHubLatest {
		logrus.Info("Fetching latest version from GitHub...")
		v, err := LatestFromTags(ctx, models.TagsAPIURL)
		if err != nil {
			return "", &models.SrcGenError{
				Type: models.ErrVersionResolve,
				Step: "github tags",
				Err:  err,
			}
		}
		logrus.Infof("Using latest GitHub version: %s", v)
		return v, nil
	}

	logrus.Info("Using version from local package.json...")
	pkgPath := filepath.Join(cfg.ProjectRoot, "package.json")
	pkg, err := manifest.Read(pkgPath)
	if err == nil && pkg.Version == "" {
		err = fmt.Errorf("no version field in %s", pkgPath)
	}
	if err != nil {
		return "", &models.SrcGenError{
			Type: models.ErrVersionResolve,
			Step: "local package.json",
			Err:  fmt.Errorf("%w (use --github-latest or pass a version explicitly)", err),
		}
	}
	logrus.Infof("Using local version: %s", pkg.Version)
	return pkg.Version, nil
}

// LatestFromTags queries a GitHub-style tags endpoint and returns the newest
// listed version without its leading v. Tag names are ranked as versions;
// when none of them parse, the first entry wins (the API lists newest
// first).
func LatestFromTags(ctx context.Context, tagsURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tagsURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "theia-srcgen")
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := tagsClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected HTTP status: %s", resp.Status)
	}

	var tags []githubTag
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return "", fmt.Errorf("failed to decode tag list: %w", err)
	}
	if len(tags) == 0 {
		return "", fmt.Errorf("no tags listed at %s", tagsURL)
	}

	var best *goVersion.Version
	bestName := ""
	for _, tag := range tags {
		name := strings.TrimPrefix(tag.Name, "v")
		v, err := goVersion.NewVersion(name)
		if err != nil {
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best = v
			bestName = name
		}
	}
	if bestName != "" {
		return bestName, nil
	}
	return strings.TrimPrefix(tags[0].Name, "v"), nil
}
