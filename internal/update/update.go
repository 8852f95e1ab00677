// Package update provides self-update functionality for gantry.
package update

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/creativeprojects/go-selfupdate"
)

const (
	// Repository owner and name for GitHub releases.
	repoOwner = "cameronsjo"
	repoName  = "gantry"
)

// Release contains information about an available update.
type Release struct {
	Version     string
	ReleaseURL  string
	PublishedAt string
	Changelog   string
}

func newUpdater() (*selfupdate.Updater, error) {
	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, fmt.Errorf("creating update source: %w", err)
	}

	updater, err := selfupdate.NewUpdater(selfupdate.Config{
		Source: source,
	})
	if err != nil {
		return nil, fmt.Errorf("creating updater: %w", err)
	}
	return updater, nil
}

func latest(ctx context.Context, updater *selfupdate.Updater) (*selfupdate.Release, bool, error) {
	rel, found, err := updater.DetectLatest(ctx, selfupdate.NewRepositorySlug(repoOwner, repoName))
	if err != nil {
		return nil, false, fmt.Errorf("detecting latest version: %w", err)
	}
	return rel, found, nil
}

func toRelease(rel *selfupdate.Release) *Release {
	return &Release{
		Version:     rel.Version(),
		ReleaseURL:  rel.URL,
		PublishedAt: rel.PublishedAt.Format("2006-01-02"),
		Changelog:   rel.ReleaseNotes,
	}
}

// CheckForUpdate reports whether a release newer than currentVersion exists.
func CheckForUpdate(ctx context.Context, currentVersion string) (*Release, bool, error) {
	updater, err := newUpdater()
	if err != nil {
		return nil, false, err
	}

	rel, found, err := latest(ctx, updater)
	if err != nil || !found {
		return nil, false, err
	}
	if rel.LessOrEqual(currentVersion) {
		return nil, false, nil
	}

	return toRelease(rel), true, nil
}

// Update downloads and installs the latest version. It returns nil when
// currentVersion is already the latest.
func Update(ctx context.Context, currentVersion string) (*Release, error) {
	updater, err := newUpdater()
	if err != nil {
		return nil, err
	}

	rel, found, err := latest(ctx, updater)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("no releases found for %s/%s", repoOwner, repoName)
	}
	if rel.LessOrEqual(currentVersion) {
		return nil, nil // Already up to date
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return nil, fmt.Errorf("getting executable path: %w", err)
	}

	if err := updater.UpdateTo(ctx, rel, exe); err != nil {
		return nil, fmt.Errorf("updating binary: %w", err)
	}

	return toRelease(rel), nil
}

// PlatformInfo returns the current platform as "os/arch".
func PlatformInfo() string {
	return fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
}

// ChangelogPreview returns at most limit lines of the changelog and the number
// of lines left out.
func ChangelogPreview(changelog string, limit int) ([]string, int) {
	if changelog == "" {
		return nil, 0
	}

	lines := strings.Split(strings.TrimRight(changelog, "\n"), "\n")
	if len(lines) <= limit {
		return lines, 0
	}
	return lines[:limit], len(lines) - limit
}
