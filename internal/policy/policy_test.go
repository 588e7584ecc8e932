package policy

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjulian5/scmsource/internal/filter"
	"github.com/bjulian5/scmsource/internal/model"
	"github.com/bjulian5/scmsource/internal/trust"
)

// summary flattens a policy into comparable values.
type summary struct {
	WantBranches, WantTags, WantOriginPRs, WantForkPRs, WantReleases bool
	Origin, Fork                                                     []model.CheckoutStrategy
	Filters                                                          []string
	Trust                                                            map[model.HeadKind]string
	Releases                                                         ReleaseOptions
	Webhook                                                          WebhookMode
	Gap                                                              CollaboratorGap
}

func summarize(p *Policy) summary {
	s := summary{
		WantBranches:  p.WantBranches,
		WantTags:      p.WantTags,
		WantOriginPRs: p.WantOriginPRs,
		WantForkPRs:   p.WantForkPRs,
		WantReleases:  p.WantReleases,
		Origin:        p.StrategiesFor(model.DefaultOrigin()),
		Fork:          p.StrategiesFor(model.ForkOrigin("alice/widgets")),
		Trust:         map[model.HeadKind]string{},
		Releases:      p.Releases,
		Webhook:       p.Webhook,
		Gap:           p.CollaboratorGap,
	}
	for _, f := range p.Filters {
		s.Filters = append(s.Filters, f.Name())
	}
	for k, a := range p.Trust {
		s.Trust[k] = a.Name()
	}
	return s
}

func permutations(traits []Trait) [][]Trait {
	if len(traits) <= 1 {
		return [][]Trait{traits}
	}
	var out [][]Trait
	for i := range traits {
		rest := make([]Trait, 0, len(traits)-1)
		rest = append(rest, traits[:i]...)
		rest = append(rest, traits[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]Trait{traits[i]}, p...))
		}
	}
	return out
}

func TestBuild_OrderIndependent(t *testing.T) {
	traits := []Trait{
		BranchDiscovery(BranchesExcludePRs),
		OriginPullRequestDiscovery(model.StrategyHead),
		ForkPullRequestDiscovery(trust.Contributors, model.StrategyMerge, model.StrategyHead),
		TagDiscovery(),
		ReleaseDiscovery(ReleaseOptions{IncludePreReleases: true}),
		ReleaseDiscovery(ReleaseOptions{IncludeDrafts: true}),
	}

	first, err := Build(traits...)
	require.NoError(t, err)
	want := summarize(first)

	for _, order := range permutations(traits) {
		p, err := Build(order...)
		require.NoError(t, err)
		if diff := cmp.Diff(want, summarize(p)); diff != "" {
			t.Errorf("policy depends on trait order (-want +got):\n%s", diff)
		}
	}

	assert.Equal(t, []model.CheckoutStrategy{model.StrategyMerge, model.StrategyHead}, want.Fork)
	assert.Equal(t, []model.CheckoutStrategy{model.StrategyHead}, want.Origin)
	assert.Equal(t, ReleaseOptions{IncludeDrafts: true, IncludePreReleases: true}, want.Releases)
}

func TestBuild_StrategiesUnion(t *testing.T) {
	p, err := Build(
		OriginPullRequestDiscovery(model.StrategyMerge),
		OriginPullRequestDiscovery(model.StrategyHead),
		OriginPullRequestDiscovery(model.StrategyMerge),
	)
	require.NoError(t, err)
	assert.Equal(t, []model.CheckoutStrategy{model.StrategyMerge, model.StrategyHead}, p.StrategiesFor(model.DefaultOrigin()))
	assert.Nil(t, p.StrategiesFor(model.ForkOrigin("alice/widgets")), "fork discovery not wanted")
}

func TestBuild_DefaultStrategy(t *testing.T) {
	p, err := Build(OriginPullRequestDiscovery())
	require.NoError(t, err)
	assert.Equal(t, []model.CheckoutStrategy{model.StrategyMerge}, p.StrategiesFor(model.DefaultOrigin()))
}

func TestBuild_ConflictingFilters(t *testing.T) {
	_, err := Build(
		BranchDiscovery(BranchesExcludePRs),
		BranchDiscovery(BranchesOnlyPRs),
	)
	assert.ErrorIs(t, err, ErrConflictingFilters)
}

func TestBuild_FiltersDeduplicated(t *testing.T) {
	p, err := Build(
		BranchDiscovery(BranchesExcludePRs),
		BranchDiscovery(BranchesExcludePRs),
		BranchDiscovery(BranchesAll),
	)
	require.NoError(t, err)
	require.Len(t, p.Filters, 1)
	assert.Equal(t, filter.ExcludeOriginPRBranchesName, p.Filters[0].Name())
}

func TestBuild_LastTrustBindingWins(t *testing.T) {
	p, err := Build(
		ForkPullRequestDiscovery(trust.Contributors),
		TrustAuthority(model.KindPullRequest, trust.Everyone),
	)
	require.NoError(t, err)
	assert.Equal(t, trust.Everyone, p.Trust[model.KindPullRequest])

	p, err = Build(
		TrustAuthority(model.KindPullRequest, trust.Everyone),
		ForkPullRequestDiscovery(trust.Nobody),
	)
	require.NoError(t, err)
	assert.Equal(t, trust.Nobody, p.Trust[model.KindPullRequest])
	assert.Equal(t, trust.Nobody, p.Resolver().Authority(model.KindPullRequest))
}

func TestBuild_TrustOnlyForPullRequests(t *testing.T) {
	for _, kind := range []model.HeadKind{model.KindBranch, model.KindTag, model.KindRelease} {
		t.Run(kind.String(), func(t *testing.T) {
			_, err := Build(
				BranchDiscovery(BranchesAll),
				TrustAuthority(kind, trust.Nobody),
			)
			assert.ErrorIs(t, err, ErrUnsupportedTrust)
		})
	}
}

func TestBuild_SingleValuedSettings(t *testing.T) {
	p, err := Build()
	require.NoError(t, err)
	assert.Equal(t, WebhookDisabled, p.Webhook)
	assert.Equal(t, GapDegrade, p.CollaboratorGap)
	assert.False(t, p.WantPullRequests())

	p, err = Build(
		WebhookRegistration(WebhookSystem),
		WebhookRegistration(WebhookItem),
		NotificationContext("ci/a"),
		NotificationContext("ci/b"),
		DisableNotifications(),
		FailOnCollaboratorGap(),
	)
	require.NoError(t, err)
	assert.Equal(t, WebhookItem, p.Webhook)
	assert.Equal(t, "ci/b", p.NotificationContext)
	assert.True(t, p.NotificationsDisabled)
	assert.Equal(t, GapFail, p.CollaboratorGap)
}
