package trust

import (
	"context"
	"fmt"

	"github.com/bjulian5/scmsource/internal/model"
)

// Checkout says what to build for a revision. Nominal is the revision
// being tested and reported; Trusted is the revision whose content may be
// read with the source repository's privileges, such as pipeline
// definitions.
type Checkout struct {
	Nominal model.Revision
	Trusted model.Revision
	// Untrusted is set when Trusted was substituted for Nominal.
	Untrusted bool
}

// Resolver applies per-kind authorities. Branches, tags, releases and
// default-origin pull requests are always trusted; fork pull requests go
// to the authority bound to model.KindPullRequest, or Nobody if unbound.
type Resolver struct {
	authorities map[model.HeadKind]Authority
}

func NewResolver(authorities map[model.HeadKind]Authority) *Resolver {
	copied := make(map[model.HeadKind]Authority, len(authorities))
	for k, v := range authorities {
		copied[k] = v
	}
	return &Resolver{authorities: copied}
}

// Authority returns the authority bound to kind.
func (r *Resolver) Authority(kind model.HeadKind) Authority {
	if a, ok := r.authorities[kind]; ok && a != nil {
		return a
	}
	if kind == model.KindPullRequest {
		return Nobody
	}
	return DefaultOrigin
}

// IsTrusted reports whether head may be built with the source repository's
// privileges.
func (r *Resolver) IsTrusted(ctx context.Context, req Request, head model.Head) (bool, error) {
	switch h := head.(type) {
	case model.BranchHead, model.TagHead, model.ReleaseHead:
		return DefaultOrigin.IsTrusted(ctx, req, h)
	case model.PullRequestHead:
		if !h.IsFork() {
			return DefaultOrigin.IsTrusted(ctx, req, h)
		}
		return r.Authority(model.KindPullRequest).IsTrusted(ctx, req, h)
	default:
		return false, fmt.Errorf("unsupported head type %T", head)
	}
}

// Resolve decides what to build for rev. An untrusted pull request keeps
// its own revision as the nominal revision but substitutes the target
// branch revision for anything read with elevated privileges.
func (r *Resolver) Resolve(ctx context.Context, req Request, rev model.Revision) (Checkout, error) {
	trusted, err := r.IsTrusted(ctx, req, rev.Head())
	if err != nil {
		return Checkout{}, fmt.Errorf("failed to resolve trust for %s: %w", rev.Head().Name(), err)
	}
	if trusted {
		return Checkout{Nominal: rev, Trusted: rev}, nil
	}
	pr, ok := rev.(model.PullRequestRevision)
	if !ok {
		return Checkout{}, fmt.Errorf("untrusted %s revision for %s has no fallback", rev.Head().Kind(), rev.Head().Name())
	}
	return Checkout{Nominal: rev, Trusted: pr.Target, Untrusted: true}, nil
}
