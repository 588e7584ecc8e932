// Package policy describes what a source discovers and how it trusts what
// it finds.
//
// A Policy is assembled from traits. Traits OR their want flags, union
// their strategy sets and deduplicate their filters, so the order traits
// are applied in does not change the result. The exceptions are
// single-valued settings (trust authority bindings, webhook mode,
// notification context): for those the last trait applied wins.
package policy

import (
	"errors"
	"fmt"
	"sort"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/bjulian5/scmsource/internal/filter"
	"github.com/bjulian5/scmsource/internal/model"
	"github.com/bjulian5/scmsource/internal/trust"
)

// ErrConflictingFilters is returned when mutually exclusive filters are
// both configured.
var ErrConflictingFilters = errors.New("conflicting filters")

// ErrUnsupportedTrust is returned when an authority is bound to a head kind
// other than pull requests. Every other kind comes from the source
// repository and is always trusted.
var ErrUnsupportedTrust = errors.New("trust authority only applies to pull requests")

// WebhookMode controls webhook registration. It is carried through for the
// caller; discovery does not act on it.
type WebhookMode string

const (
	WebhookDisabled WebhookMode = "disabled"
	WebhookItem     WebhookMode = "item"
	WebhookSystem   WebhookMode = "system"
)

// CollaboratorGap controls what happens when collaborator-based trust is
// configured but the collaborator list cannot be read.
type CollaboratorGap string

const (
	// GapDegrade treats every fork as untrusted and logs.
	GapDegrade CollaboratorGap = "degrade"
	// GapFail aborts the operation with trust.ErrCollaboratorsUnavailable.
	GapFail CollaboratorGap = "fail"
)

// ReleaseOptions tune release discovery.
type ReleaseOptions struct {
	IncludeDrafts        bool
	IncludePreReleases   bool
	MapArtifactsToAssets bool
}

// Policy is the accumulated discovery configuration of one source.
type Policy struct {
	WantBranches  bool
	WantTags      bool
	WantOriginPRs bool
	WantForkPRs   bool
	WantReleases  bool

	OriginStrategies sets.Set[model.CheckoutStrategy]
	ForkStrategies   sets.Set[model.CheckoutStrategy]

	// Trust binds an authority per head kind.
	Trust map[model.HeadKind]trust.Authority

	Filters []filter.Filter

	Releases ReleaseOptions

	Webhook               WebhookMode
	NotificationsDisabled bool
	NotificationContext   string

	CollaboratorGap CollaboratorGap
}

// Trait mutates a policy under construction.
type Trait func(*Policy)

func newPolicy() *Policy {
	return &Policy{
		OriginStrategies: sets.New[model.CheckoutStrategy](),
		ForkStrategies:   sets.New[model.CheckoutStrategy](),
		Trust:            map[model.HeadKind]trust.Authority{},
		Webhook:          WebhookDisabled,
		CollaboratorGap:  GapDegrade,
	}
}

// Build applies traits in order to an empty policy and validates the
// result.
func Build(traits ...Trait) (*Policy, error) {
	p := newPolicy()
	for _, t := range traits {
		if t != nil {
			t(p)
		}
	}

	for kind := range p.Trust {
		if kind != model.KindPullRequest {
			return nil, fmt.Errorf("%w: got %s", ErrUnsupportedTrust, kind)
		}
	}

	p.Filters = dedupeFilters(p.Filters)
	names := sets.New[string]()
	for _, f := range p.Filters {
		names.Insert(f.Name())
	}
	if names.Has(filter.ExcludeOriginPRBranchesName) && names.Has(filter.OnlyOriginPRBranchesName) {
		return nil, fmt.Errorf("%w: %s and %s", ErrConflictingFilters,
			filter.ExcludeOriginPRBranchesName, filter.OnlyOriginPRBranchesName)
	}
	return p, nil
}

func dedupeFilters(in []filter.Filter) []filter.Filter {
	seen := sets.New[string]()
	var out []filter.Filter
	for _, f := range in {
		if f == nil || seen.Has(f.Name()) {
			continue
		}
		seen.Insert(f.Name())
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// WantPullRequests reports whether any pull request discovery is wanted.
func (p *Policy) WantPullRequests() bool {
	return p.WantOriginPRs || p.WantForkPRs
}

// StrategiesFor returns the sorted checkout strategies that apply to a pull
// request from origin, or nil when that kind of pull request is not
// discovered.
func (p *Policy) StrategiesFor(origin model.Origin) []model.CheckoutStrategy {
	if origin.IsFork() {
		if !p.WantForkPRs {
			return nil
		}
		return sets.List(p.ForkStrategies)
	}
	if !p.WantOriginPRs {
		return nil
	}
	return sets.List(p.OriginStrategies)
}

// Resolver returns a trust resolver over the policy's authority bindings.
func (p *Policy) Resolver() *trust.Resolver {
	return trust.NewResolver(p.Trust)
}
