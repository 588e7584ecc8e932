package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/require"
)

// Epoch is the time of the first commit of every GitRepo. Each later commit
// or annotated tag is one hour after the previous one.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// GitRepo is an in-memory git repository with deterministic commit times.
type GitRepo struct {
	t     *testing.T
	Repo  *gogit.Repository
	clock time.Time
	files int
}

// NewGitRepo creates a repository with an initial commit on main.
func NewGitRepo(t *testing.T) *GitRepo {
	t.Helper()

	repo, err := gogit.Init(memory.NewStorage(), memfs.New())
	require.NoError(t, err, "failed to initialize in-memory git repository")

	head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("main"))
	require.NoError(t, repo.Storer.SetReference(head), "failed to point HEAD at main")

	r := &GitRepo{t: t, Repo: repo, clock: Epoch}
	r.Commit("Initial commit")
	return r
}

func (r *GitRepo) tick() time.Time {
	now := r.clock
	r.clock = r.clock.Add(time.Hour)
	return now
}

func (r *GitRepo) signature() *object.Signature {
	return &object.Signature{
		Name:  "Test User",
		Email: "test@example.com",
		When:  r.tick(),
	}
}

// Commit commits a new file on the checked out branch and returns the
// commit hash.
func (r *GitRepo) Commit(message string) string {
	r.t.Helper()

	wt, err := r.Repo.Worktree()
	require.NoError(r.t, err)

	r.files++
	name := fmt.Sprintf("file-%d.txt", r.files)
	require.NoError(r.t, util.WriteFile(wt.Filesystem, name, []byte(message+"\n"), 0644))
	_, err = wt.Add(name)
	require.NoError(r.t, err)

	sig := r.signature()
	hash, err := wt.Commit(message, &gogit.CommitOptions{Author: sig, Committer: sig})
	require.NoError(r.t, err, "failed to commit %q", message)
	return hash.String()
}

// Checkout switches to branch, creating it at the current HEAD if needed.
func (r *GitRepo) Checkout(branch string) {
	r.t.Helper()

	wt, err := r.Repo.Worktree()
	require.NoError(r.t, err)

	ref := plumbing.NewBranchReferenceName(branch)
	_, err = r.Repo.Reference(ref, false)
	create := err == plumbing.ErrReferenceNotFound
	if !create {
		require.NoError(r.t, err)
	}
	require.NoError(r.t, wt.Checkout(&gogit.CheckoutOptions{Branch: ref, Create: create, Force: true}),
		"failed to check out %s", branch)
}

// CommitOn checks out branch and commits on it.
func (r *GitRepo) CommitOn(branch, message string) string {
	r.t.Helper()
	r.Checkout(branch)
	return r.Commit(message)
}

// SetBranch points branch at sha without touching the worktree.
func (r *GitRepo) SetBranch(branch, sha string) {
	r.t.Helper()
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(branch), plumbing.NewHash(sha))
	require.NoError(r.t, r.Repo.Storer.SetReference(ref), "failed to set %s", branch)
}

// LightweightTag tags sha with name.
func (r *GitRepo) LightweightTag(name, sha string) {
	r.t.Helper()
	_, err := r.Repo.CreateTag(name, plumbing.NewHash(sha), nil)
	require.NoError(r.t, err, "failed to create tag %s", name)
}

// AnnotatedTag tags sha with name and returns the tag object hash. The
// tagger date is returned too.
func (r *GitRepo) AnnotatedTag(name, sha string) (string, time.Time) {
	r.t.Helper()
	sig := r.signature()
	ref, err := r.Repo.CreateTag(name, plumbing.NewHash(sha), &gogit.CreateTagOptions{
		Tagger:  sig,
		Message: "Release " + name,
	})
	require.NoError(r.t, err, "failed to create annotated tag %s", name)
	return ref.Hash().String(), sig.When
}

// CommitTime returns the committer date of sha.
func (r *GitRepo) CommitTime(sha string) time.Time {
	r.t.Helper()
	c, err := r.Repo.CommitObject(plumbing.NewHash(sha))
	require.NoError(r.t, err)
	return c.Committer.When
}
