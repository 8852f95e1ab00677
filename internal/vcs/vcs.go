// Package vcs reads source revision metadata for built images.
package vcs

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// RevisionLabel is the OCI annotation carrying the source revision.
const RevisionLabel = "org.opencontainers.image.revision"

// ErrNotRepository indicates dir is not inside a git work tree.
var ErrNotRepository = errors.New("not a git repository")

// Revision returns the HEAD commit hash of the repository containing dir.
func Revision(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return "", fmt.Errorf("%s: %w", dir, ErrNotRepository)
		}
		return "", fmt.Errorf("open repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", fmt.Errorf("%s: repository has no commits", dir)
		}
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}

	return head.Hash().String(), nil
}

// Labels returns the revision label for images built from dir, or nil when
// dir is not under version control.
func Labels(dir string) map[string]string {
	rev, err := Revision(dir)
	if err != nil {
		return nil
	}
	return map[string]string{RevisionLabel: rev}
}
