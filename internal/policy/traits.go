package policy

import (
	"github.com/bjulian5/scmsource/internal/filter"
	"github.com/bjulian5/scmsource/internal/model"
	"github.com/bjulian5/scmsource/internal/trust"
)

// BranchMode selects how branches relate to origin pull requests.
type BranchMode string

const (
	// BranchesExcludePRs skips branches that are also origin pull requests.
	BranchesExcludePRs BranchMode = "exclude-pr"
	// BranchesOnlyPRs keeps only branches that are also origin pull requests.
	BranchesOnlyPRs BranchMode = "only-pr"
	// BranchesAll keeps every branch.
	BranchesAll BranchMode = "all"
)

// BranchDiscovery discovers branches.
func BranchDiscovery(mode BranchMode) Trait {
	return func(p *Policy) {
		p.WantBranches = true
		switch mode {
		case BranchesExcludePRs:
			p.Filters = append(p.Filters, filter.ExcludeOriginPRBranches)
		case BranchesOnlyPRs:
			p.Filters = append(p.Filters, filter.OnlyOriginPRBranches)
		}
	}
}

// OriginPullRequestDiscovery discovers pull requests from the source
// repository with the given strategies. With no strategies, Merge is used.
func OriginPullRequestDiscovery(strategies ...model.CheckoutStrategy) Trait {
	return func(p *Policy) {
		p.WantOriginPRs = true
		p.OriginStrategies.Insert(defaultStrategies(strategies)...)
	}
}

// ForkPullRequestDiscovery discovers pull requests from forks with the given
// strategies and binds authority as the pull request trust authority. A
// later trait binding a different pull request authority replaces this one.
func ForkPullRequestDiscovery(authority trust.Authority, strategies ...model.CheckoutStrategy) Trait {
	return func(p *Policy) {
		p.WantForkPRs = true
		p.ForkStrategies.Insert(defaultStrategies(strategies)...)
		if authority != nil {
			p.Trust[model.KindPullRequest] = authority
		}
	}
}

// TrustAuthority binds authority to kind. The last binding applied wins.
// Only model.KindPullRequest can be bound; Build rejects any other kind
// with ErrUnsupportedTrust.
func TrustAuthority(kind model.HeadKind, authority trust.Authority) Trait {
	return func(p *Policy) {
		p.Trust[kind] = authority
	}
}

// TagDiscovery discovers tags.
func TagDiscovery() Trait {
	return func(p *Policy) {
		p.WantTags = true
	}
}

// ReleaseDiscovery discovers releases. Options are ORed with those of any
// other ReleaseDiscovery trait.
func ReleaseDiscovery(opts ReleaseOptions) Trait {
	return func(p *Policy) {
		p.WantReleases = true
		p.Releases.IncludeDrafts = p.Releases.IncludeDrafts || opts.IncludeDrafts
		p.Releases.IncludePreReleases = p.Releases.IncludePreReleases || opts.IncludePreReleases
		p.Releases.MapArtifactsToAssets = p.Releases.MapArtifactsToAssets || opts.MapArtifactsToAssets
	}
}

// WebhookRegistration sets the webhook mode. The last mode applied wins.
func WebhookRegistration(mode WebhookMode) Trait {
	return func(p *Policy) {
		p.Webhook = mode
	}
}

// DisableNotifications turns off commit status notifications.
func DisableNotifications() Trait {
	return func(p *Policy) {
		p.NotificationsDisabled = true
	}
}

// NotificationContext sets the commit status context label. The last label
// applied wins.
func NotificationContext(label string) Trait {
	return func(p *Policy) {
		p.NotificationContext = label
	}
}

// FailOnCollaboratorGap makes collaborator trust fail loudly instead of
// degrading to untrusted when the collaborator list cannot be read.
func FailOnCollaboratorGap() Trait {
	return func(p *Policy) {
		p.CollaboratorGap = GapFail
	}
}

func defaultStrategies(strategies []model.CheckoutStrategy) []model.CheckoutStrategy {
	if len(strategies) == 0 {
		return []model.CheckoutStrategy{model.StrategyMerge}
	}
	return strategies
}
