package git

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjulian5/scmsource/internal/discovery"
	"github.com/bjulian5/scmsource/internal/model"
	"github.com/bjulian5/scmsource/internal/policy"
	"github.com/bjulian5/scmsource/internal/remote"
	"github.com/bjulian5/scmsource/internal/testutil"
)

func TestGetRepository(t *testing.T) {
	r := testutil.NewGitRepo(t)
	c := NewFromRepository(r.Repo, "acme", "widgets")
	ctx := context.Background()

	repo, err := c.GetRepository(ctx, "ACME", "Widgets")
	require.NoError(t, err)
	assert.Equal(t, "main", repo.DefaultBranch)
	assert.True(t, repo.Mirror)
	assert.True(t, repo.Permissions.Admin)

	_, err = c.GetRepository(ctx, "acme", "gadgets")
	assert.True(t, remote.IsNotFound(err))

	v, err := c.ServerVersion(ctx)
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestListBranches(t *testing.T) {
	r := testutil.NewGitRepo(t)
	main := r.Commit("second")
	feature := r.CommitOn("feature", "on feature")
	c := NewFromRepository(r.Repo, "acme", "widgets")

	branches, err := c.ListBranches(context.Background(), "acme", "widgets")
	require.NoError(t, err)
	assert.Equal(t, []remote.Branch{
		{Name: "feature", SHA: feature},
		{Name: "main", SHA: main},
	}, branches)
}

func TestTags(t *testing.T) {
	r := testutil.NewGitRepo(t)
	first := r.Commit("first")
	second := r.Commit("second")
	r.LightweightTag("v1.0.0", first)
	objHash, taggedAt := r.AnnotatedTag("v2.0.0", second)
	c := NewFromRepository(r.Repo, "acme", "widgets")
	ctx := context.Background()

	tags, next, err := c.ListTags(ctx, "acme", "widgets", 1)
	require.NoError(t, err)
	assert.Zero(t, next)
	require.Len(t, tags, 2)
	assert.True(t, tags[0].TaggerAt.IsZero())
	assert.True(t, taggedAt.Equal(tags[1].TaggerAt), "got %v", tags[1].TaggerAt)
	tags[1].TaggerAt = time.Time{}
	assert.Equal(t, []remote.Tag{
		{Name: "v1.0.0", ID: first, Commit: &remote.CommitRef{SHA: first}},
		{Name: "v2.0.0", ID: objHash, Commit: &remote.CommitRef{SHA: second}},
	}, tags)

	tag, err := c.GetTag(ctx, "acme", "widgets", "v2.0.0")
	require.NoError(t, err)
	assert.True(t, tag.IsAnnotated())

	annotated, err := c.GetAnnotatedTag(ctx, "acme", "widgets", objHash)
	require.NoError(t, err)
	assert.Equal(t, second, annotated.TargetSHA)
	assert.True(t, taggedAt.Equal(annotated.TaggerAt))

	_, err = c.GetTag(ctx, "acme", "widgets", "v9")
	assert.True(t, remote.IsNotFound(err))

	_, err = c.GetAnnotatedTag(ctx, "acme", "widgets", first)
	assert.True(t, remote.IsNotFound(err), "a commit is not a tag object")

	tags, next, err = c.ListTags(ctx, "acme", "widgets", 2)
	require.NoError(t, err)
	assert.Empty(t, tags)
	assert.Zero(t, next)
}

func TestGetCommit(t *testing.T) {
	r := testutil.NewGitRepo(t)
	sha := r.Commit("second")
	c := NewFromRepository(r.Repo, "acme", "widgets")
	ctx := context.Background()

	commit, err := c.GetCommit(ctx, "acme", "widgets", sha)
	require.NoError(t, err)
	assert.True(t, r.CommitTime(sha).Equal(commit.CommittedAt))

	_, err = c.GetCommit(ctx, "acme", "widgets", "0123456789012345678901234567890123456789")
	assert.True(t, remote.IsNotFound(err))
}

func TestNothingElse(t *testing.T) {
	c := NewFromRepository(testutil.NewGitRepo(t).Repo, "acme", "widgets")
	ctx := context.Background()

	prs, err := c.ListPullRequests(ctx, "acme", "widgets", remote.PullRequestOpen)
	require.NoError(t, err)
	assert.Empty(t, prs)

	releases, err := c.ListReleases(ctx, "acme", "widgets")
	require.NoError(t, err)
	assert.Empty(t, releases)

	names, err := c.ListCollaborators(ctx, "acme", "widgets")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestDiscovery(t *testing.T) {
	r := testutil.NewGitRepo(t)
	main := r.Commit("second")
	feature := r.CommitOn("feature", "on feature")
	objHash, taggedAt := r.AnnotatedTag("v1.0.0", main)
	r.LightweightTag("nightly", feature)

	p, err := policy.Build(
		policy.BranchDiscovery(policy.BranchesExcludePRs),
		policy.OriginPullRequestDiscovery(),
		policy.TagDiscovery(),
	)
	require.NoError(t, err)
	src := model.Source{ServerURL: "file:///srv/widgets", Owner: "acme", Repository: "widgets"}
	s := discovery.Open(p, src, NewFromRepository(r.Repo, "acme", "widgets"))
	defer s.Close()

	c := discovery.NewCollector()
	_, err = s.ForEachCandidate(context.Background(), nil, c)
	require.NoError(t, err)

	assert.Equal(t, []model.Revision{
		model.NewBranchRevision("feature", feature),
		model.NewBranchRevision("main", main),
		model.TagRevision{Tag: model.TagHead{TagName: "nightly", Timestamp: r.CommitTime(feature).UnixMilli()}, Hash: feature},
		model.TagRevision{Tag: model.TagHead{TagName: "v1.0.0", Timestamp: taggedAt.UnixMilli()}, Hash: main},
	}, c.Sorted())
	assert.NotEqual(t, objHash, main)
}
