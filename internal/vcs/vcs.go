// Package vcs resolves repository metadata stamped into run reports.
package vcs

import (
	"github.com/go-git/go-git/v5"
)

// HeadCommit returns the short hash of HEAD for the repository
// containing path, detecting .git in parent directories. Outside a
// repository it returns an empty string and no error; a gate run does
// not require version control.
func HeadCommit(path string) (string, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err == git.ErrRepositoryNotExists {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	ref, err := repo.Head()
	if err != nil {
		// Fresh repository without commits.
		return "", nil
	}
	return ref.Hash().String()[:12], nil
}
