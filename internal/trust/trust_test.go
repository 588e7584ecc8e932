package trust

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/bjulian5/scmsource/internal/model"
)

type failingRequest struct{}

func (failingRequest) Collaborators(context.Context) (sets.Set[string], error) {
	return nil, ErrCollaboratorsUnavailable
}

func forkHead(owner string) model.PullRequestHead {
	return model.PullRequestHead{
		DisplayName:      "PR-7",
		ID:               7,
		Target:           model.BranchHead{BranchName: "main"},
		Strategy:         model.StrategyMerge,
		Origin:           model.ForkOrigin(owner + "/widgets"),
		OriginOwner:      owner,
		OriginRepo:       "widgets",
		OriginBranchName: "feature",
	}
}

func originHead() model.PullRequestHead {
	return model.PullRequestHead{
		DisplayName:      "PR-8",
		ID:               8,
		Target:           model.BranchHead{BranchName: "main"},
		Strategy:         model.StrategyMerge,
		Origin:           model.DefaultOrigin(),
		OriginOwner:      "acme",
		OriginRepo:       "widgets",
		OriginBranchName: "fix",
	}
}

func TestAuthorities(t *testing.T) {
	ctx := context.Background()
	req := NewStaticRequest("Alice", "bob")

	tests := []struct {
		name      string
		authority Authority
		head      model.Head
		expected  bool
	}{
		{name: "nobody rejects fork", authority: Nobody, head: forkHead("alice"), expected: false},
		{name: "everyone accepts fork", authority: Everyone, head: forkHead("mallory"), expected: true},
		{name: "contributors accepts collaborator fork", authority: Contributors, head: forkHead("alice"), expected: true},
		{name: "contributors matches owner case-insensitively", authority: Contributors, head: forkHead("BOB"), expected: true},
		{name: "contributors rejects stranger fork", authority: Contributors, head: forkHead("mallory"), expected: false},
		{name: "contributors rejects default origin head", authority: Contributors, head: originHead(), expected: false},
		{name: "contributors rejects branch", authority: Contributors, head: model.BranchHead{BranchName: "main"}, expected: false},
		{name: "default origin accepts branch", authority: DefaultOrigin, head: model.BranchHead{BranchName: "main"}, expected: true},
		{name: "default origin accepts tag", authority: DefaultOrigin, head: model.TagHead{TagName: "v1"}, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trusted, err := tt.authority.IsTrusted(ctx, req, tt.head)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, trusted)
		})
	}
}

func TestContributors_PropagatesRequestError(t *testing.T) {
	_, err := Contributors.IsTrusted(context.Background(), failingRequest{}, forkHead("alice"))
	assert.True(t, errors.Is(err, ErrCollaboratorsUnavailable))
}

func TestResolver_IsTrusted(t *testing.T) {
	ctx := context.Background()
	req := NewStaticRequest("alice")

	unbound := NewResolver(nil)
	trusted, err := unbound.IsTrusted(ctx, req, forkHead("alice"))
	require.NoError(t, err)
	assert.False(t, trusted, "unbound pull request authority trusts nobody")

	trusted, err = unbound.IsTrusted(ctx, req, originHead())
	require.NoError(t, err)
	assert.True(t, trusted, "default origin pull requests are trusted")

	contrib := NewResolver(map[model.HeadKind]Authority{model.KindPullRequest: Contributors})
	trusted, err = contrib.IsTrusted(ctx, req, forkHead("alice"))
	require.NoError(t, err)
	assert.True(t, trusted)

	trusted, err = contrib.IsTrusted(ctx, req, model.ReleaseHead{TagName: "v1", ReleaseID: 1})
	require.NoError(t, err)
	assert.True(t, trusted)
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	resolver := NewResolver(map[model.HeadKind]Authority{model.KindPullRequest: Contributors})

	target := model.NewBranchRevision("main", "target-sha")
	origin := model.NewBranchRevision("feature", "fork-sha")

	t.Run("untrusted fork builds with target branch content", func(t *testing.T) {
		rev := model.PullRequestRevision{PullRequest: forkHead("mallory"), Target: target, Origin: origin}

		checkout, err := resolver.Resolve(ctx, NewStaticRequest("alice"), rev)
		require.NoError(t, err)
		assert.True(t, checkout.Untrusted)
		assert.Equal(t, rev, checkout.Nominal)
		assert.Equal(t, target, checkout.Trusted)
	})

	t.Run("trusted fork builds as-is", func(t *testing.T) {
		rev := model.PullRequestRevision{PullRequest: forkHead("alice"), Target: target, Origin: origin}

		checkout, err := resolver.Resolve(ctx, NewStaticRequest("alice"), rev)
		require.NoError(t, err)
		assert.False(t, checkout.Untrusted)
		assert.Equal(t, rev, checkout.Trusted)
	})

	t.Run("branch is always trusted", func(t *testing.T) {
		checkout, err := resolver.Resolve(ctx, NewStaticRequest(), target)
		require.NoError(t, err)
		assert.Equal(t, target, checkout.Trusted)
	})

	t.Run("request failure surfaces", func(t *testing.T) {
		rev := model.PullRequestRevision{PullRequest: forkHead("alice"), Target: target, Origin: origin}

		_, err := resolver.Resolve(ctx, failingRequest{}, rev)
		assert.ErrorIs(t, err, ErrCollaboratorsUnavailable)
	})
}

func TestParseAuthority(t *testing.T) {
	tests := []struct {
		input    string
		expected Authority
	}{
		{input: "nobody", expected: Nobody},
		{input: "Contributors", expected: Contributors},
		{input: "", expected: Contributors},
		{input: "everyone", expected: Everyone},
	}
	for _, tt := range tests {
		a, err := ParseAuthority(tt.input)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, a)
	}

	_, err := ParseAuthority("admins")
	assert.Error(t, err)
}
