package vcs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadCommitOutsideRepository(t *testing.T) {
	commit, err := HeadCommit(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, commit)
}

func TestHeadCommitEmptyRepository(t *testing.T) {
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	commit, err := HeadCommit(dir)
	require.NoError(t, err)
	assert.Empty(t, commit, "a repo without commits has no HEAD")
}

func TestHeadCommitReturnsShortHash(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "f.txt"), []byte("x"), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("f.txt")
	require.NoError(t, err)
	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "t", Email: "t@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	commit, err := HeadCommit(dir)
	require.NoError(t, err)
	assert.Equal(t, hash.String()[:12], commit)
	assert.Len(t, commit, 12)
}
