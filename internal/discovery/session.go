// Package discovery enumerates the heads of a remote repository and binds
// each to its current revision.
//
// A Session is opened per discovery pass, used sequentially by a single
// caller, and closed when the pass is over. It fetches remote data lazily,
// at most once per pass, and stops issuing remote calls as soon as the
// visitor reports that it has what it needs.
package discovery

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"k8s.io/klog/v2"

	"github.com/bjulian5/scmsource/internal/model"
	"github.com/bjulian5/scmsource/internal/policy"
	"github.com/bjulian5/scmsource/internal/remote"
	"github.com/bjulian5/scmsource/internal/trust"
)

var tracer = otel.Tracer("discovery")

// ErrSessionClosed is returned by a Session used after Close.
var ErrSessionClosed = errors.New("discovery session is closed")

// Session is one bounded discovery pass over a remote snapshot. It holds no
// locks and must not be used concurrently.
type Session struct {
	id     string
	policy *policy.Policy
	source model.Source
	client remote.Client

	closed bool
	snap   *snapshot
}

// Open creates a session for src under p. Nothing is fetched until the
// session is iterated or queried.
func Open(p *policy.Policy, src model.Source, client remote.Client) *Session {
	s := &Session{
		id:     uuid.New().String(),
		policy: p,
		source: src,
		client: client,
		snap:   &snapshot{},
	}
	klog.V(4).Infof("[%s] Opened discovery session for %s", s.id, src)
	return s
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

func (s *Session) Source() model.Source   { return s.source }
func (s *Session) Policy() *policy.Policy { return s.policy }

func (s *Session) IsWantBranches() bool  { return s.policy.WantBranches }
func (s *Session) IsWantTags() bool      { return s.policy.WantTags }
func (s *Session) IsWantOriginPRs() bool { return s.policy.WantOriginPRs }
func (s *Session) IsWantForkPRs() bool   { return s.policy.WantForkPRs }
func (s *Session) IsWantReleases() bool  { return s.policy.WantReleases }

// Close releases the snapshot. It is safe to call more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.snap = nil
	klog.V(4).Infof("[%s] Closed discovery session for %s", s.id, s.source)
	return nil
}

func (s *Session) check() error {
	if s.closed {
		return ErrSessionClosed
	}
	return nil
}

// kindPass enumerates one head kind.
type kindPass struct {
	name string
	want bool
	run  func(ctx context.Context, p *pass) (bool, error)
}

// ForEachCandidate enumerates branches, pull requests, tags and releases,
// in that order and only for the kinds the policy wants. Every candidate
// that survives the filters and matches criteria is recorded with visitor.
// When the visitor asks to stop, the pass ends immediately and terminated
// is true. A remote failure aborts the whole pass.
func (s *Session) ForEachCandidate(ctx context.Context, criteria Criteria, visitor Visitor) (terminated bool, err error) {
	if err := s.check(); err != nil {
		return false, err
	}
	if criteria == nil {
		criteria = All
	}

	ctx, span := tracer.Start(ctx, "Session.ForEachCandidate", trace.WithAttributes(
		attribute.String("source", s.source.String()),
		attribute.String("session", s.id),
	))
	defer span.End()

	kinds := []kindPass{
		{name: "branches", want: s.policy.WantBranches, run: s.discoverBranches},
		{name: "pull requests", want: s.policy.WantPullRequests(), run: s.discoverPullRequests},
		{name: "tags", want: s.policy.WantTags, run: s.discoverTags},
		{name: "releases", want: s.policy.WantReleases, run: s.discoverReleases},
	}

	p := &pass{criteria: criteria, visitor: visitor}
	for _, k := range kinds {
		if !k.want {
			continue
		}
		if err := ctx.Err(); err != nil {
			return false, err
		}
		klog.V(2).Infof("[%s] Looking up %s of %s", s.id, k.name, s.source)
		p.reset()
		stop, err := k.run(ctx, p)
		if err != nil {
			span.RecordError(err)
			return false, fmt.Errorf("failed to discover %s of %s: %w", k.name, s.source, err)
		}
		klog.V(2).Infof("[%s] %d %s were processed (%d matched)", s.id, p.seen, k.name, p.matched)
		if stop {
			klog.V(2).Infof("[%s] Discovery of %s satisfied early by %s", s.id, s.source, k.name)
			return true, nil
		}
	}
	return false, nil
}

// IsTrusted reports whether head may be built with the source repository's
// privileges, under the session's policy.
func (s *Session) IsTrusted(ctx context.Context, head model.Head) (bool, error) {
	if err := s.check(); err != nil {
		return false, err
	}
	return s.policy.Resolver().IsTrusted(ctx, s, head)
}

// Resolve decides what to build for rev under the session's policy.
func (s *Session) Resolve(ctx context.Context, rev model.Revision) (trust.Checkout, error) {
	if err := s.check(); err != nil {
		return trust.Checkout{}, err
	}
	return s.policy.Resolver().Resolve(ctx, s, rev)
}

// pass tracks one kind's progress through criteria and visitor.
type pass struct {
	criteria Criteria
	visitor  Visitor

	seen    int
	matched int
}

func (p *pass) reset() {
	p.seen = 0
	p.matched = 0
}

// offer runs rev through the criteria and, on a match, the visitor. It
// returns true when the visitor asks to stop.
func (p *pass) offer(ctx context.Context, rev model.Revision) (bool, error) {
	head := rev.Head()
	p.seen++
	ok, err := p.criteria.Matches(ctx, head, rev)
	if err != nil {
		return false, fmt.Errorf("failed to match %s: %w", head.Name(), err)
	}
	if !ok {
		klog.V(4).Infof("%s %q does not match", head.Kind(), head.Name())
		return false, nil
	}
	p.matched++
	return p.visitor.Record(head, rev), nil
}
