package event

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/klog/v2"

	"github.com/bjulian5/scmsource/internal/discovery"
	"github.com/bjulian5/scmsource/internal/model"
	"github.com/bjulian5/scmsource/internal/policy"
	"github.com/bjulian5/scmsource/internal/remote"
)

var tracer = otel.Tracer("event")

const (
	branchRefPrefix = "refs/heads/"
	tagRefPrefix    = "refs/tags/"
)

// SourceListener is told about events that concern the source repository
// itself rather than its heads.
type SourceListener interface {
	SourceChanged(ctx context.Context, src model.Source, ev RepositoryEvent)
}

// SourceListenerFunc adapts a function to SourceListener.
type SourceListenerFunc func(ctx context.Context, src model.Source, ev RepositoryEvent)

func (f SourceListenerFunc) SourceChanged(ctx context.Context, src model.Source, ev RepositoryEvent) {
	f(ctx, src, ev)
}

// Option configures a Translator.
type Option func(*Translator)

// WithClock sets the clock used to stamp tags created by events.
func WithClock(now func() time.Time) Option {
	return func(t *Translator) {
		t.now = now
	}
}

// WithSourceListener adds a listener for repository events.
func WithSourceListener(l SourceListener) Option {
	return func(t *Translator) {
		t.listeners = append(t.listeners, l)
	}
}

// BranchFilter reports whether the policy's branch filters drop a head.
// *discovery.Session implements it.
type BranchFilter interface {
	Excluded(ctx context.Context, head model.Head) (bool, error)
}

// WithBranchFilter applies branch filters through f. A pushed or created
// branch that f excludes is removed instead of put.
func WithBranchFilter(f BranchFilter) Option {
	return func(t *Translator) {
		t.branches = f
	}
}

// Lookup is the remote state a translation reads.
type Lookup interface {
	discovery.TagLookup
	ServerVersion(ctx context.Context) (string, error)
}

type route func(ctx context.Context, ev Event) (model.Delta, error)

// Translator maps events for one source to head deltas under a policy.
// It holds no mutable state after construction and may be used
// concurrently, unless its branch filter may not.
//
// Without WithBranchFilter snapshot-dependent branch filters are not
// applied, since an event does not carry the pull request list they need.
type Translator struct {
	source    model.Source
	policy    *policy.Policy
	lookup    Lookup
	branches  BranchFilter
	now       func() time.Time
	listeners []SourceListener
	routes    map[Kind]route
}

// NewTranslator returns a translator for src. lookup resolves tags to
// commits and tells whether the server supports tags. A nil lookup takes
// tag hashes from the events as they are.
func NewTranslator(src model.Source, p *policy.Policy, lookup Lookup, opts ...Option) *Translator {
	t := &Translator{
		source: src,
		policy: p,
		lookup: lookup,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.routes = map[Kind]route{
		KindCreate:      t.create,
		KindDelete:      t.delete,
		KindPush:        t.push,
		KindPullRequest: t.pullRequest,
		KindRelease:     t.release,
		KindRepository:  t.repository,
	}
	return t
}

// Handle decodes a raw payload of the given kind and translates it.
func (t *Translator) Handle(ctx context.Context, kind Kind, body []byte) (model.Delta, error) {
	if _, ok := t.routes[kind]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	ev, err := Decode(kind, body)
	if err != nil {
		return nil, err
	}
	return t.Translate(ctx, ev)
}

// Translate returns the heads ev creates, updates or removes. Events for
// another repository yield an empty delta.
func (t *Translator) Translate(ctx context.Context, ev Event) (model.Delta, error) {
	r, ok := t.routes[ev.Kind()]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, ev.Kind())
	}

	ctx, span := tracer.Start(ctx, "Translator.Translate", trace.WithAttributes(
		attribute.String("source", t.source.String()),
		attribute.String("kind", string(ev.Kind())),
	))
	defer span.End()

	repo := ev.Repo()
	if !t.source.Matches(repo.HTMLURL, repo.Owner, repo.Name) {
		klog.V(4).Infof("Ignoring %s event for %s/%s (%s): not %s", ev.Kind(), repo.Owner, repo.Name, repo.HTMLURL, t.source)
		return model.Delta{}, nil
	}

	delta, err := r(ctx, ev)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to translate %s event for %s: %w", ev.Kind(), t.source, err)
	}
	klog.V(2).Infof("Translated %s event for %s into %d head changes", ev.Kind(), t.source, len(delta))
	return delta, nil
}

func as[E Event](ev Event) (E, error) {
	e, ok := ev.(E)
	if !ok {
		return e, fmt.Errorf("%w: unexpected %T for %s event", ErrMalformedPayload, ev, ev.Kind())
	}
	return e, nil
}

func (t *Translator) putBranch(ctx context.Context, d model.Delta, ct model.ChangeType, name, sha string) error {
	if !t.policy.WantBranches {
		return nil
	}
	rev := model.NewBranchRevision(name, sha)
	if t.branches != nil {
		drop, err := t.branches.Excluded(ctx, rev.Branch)
		if err != nil {
			return err
		}
		if drop {
			d.Remove(rev.Branch)
			return nil
		}
	}
	d.Put(ct, rev)
	return nil
}

func (t *Translator) removeBranch(d model.Delta, name string) {
	if t.policy.WantBranches {
		d.Remove(model.BranchHead{BranchName: name})
	}
}

func (t *Translator) putTag(ctx context.Context, d model.Delta, ct model.ChangeType, name, sha string) error {
	if !t.policy.WantTags {
		return nil
	}
	if ok, err := t.tagsSupported(ctx); err != nil || !ok {
		return err
	}
	commit, ok, err := t.tagCommit(ctx, name, sha)
	if err != nil || !ok {
		return err
	}
	d.Put(ct, model.TagRevision{
		Tag:  model.TagHead{TagName: name, Timestamp: t.now().UnixMilli()},
		Hash: commit,
	})
	return nil
}

func (t *Translator) removeTag(ctx context.Context, d model.Delta, name string) error {
	if !t.policy.WantTags {
		return nil
	}
	if ok, err := t.tagsSupported(ctx); err != nil || !ok {
		return err
	}
	d.Remove(model.TagHead{TagName: name, Timestamp: t.now().UnixMilli()})
	return nil
}

// tagsSupported reports whether the server can list tags at all. Discovery
// finds no tags on older servers, so their tag events are dropped too.
func (t *Translator) tagsSupported(ctx context.Context) (bool, error) {
	if t.lookup == nil {
		return true, nil
	}
	raw, err := t.lookup.ServerVersion(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get server version: %w", err)
	}
	if version := remote.ParseServerVersion(raw); !version.AtLeast(remote.TagsMinVersion) {
		klog.V(4).Infof("Ignoring tag event for %s: server version %s is older than %s", t.source, version, remote.TagsMinVersion)
		return false, nil
	}
	return true, nil
}

// tagCommit returns the commit tag name points at. For an annotated tag the
// event carries the tag object id, not the commit. When there is no lookup
// or the tag is already gone the event's sha is used.
func (t *Translator) tagCommit(ctx context.Context, name, sha string) (string, bool, error) {
	if t.lookup == nil {
		return sha, true, nil
	}
	tag, err := t.lookup.GetTag(ctx, t.source.Owner, t.source.Repository, name)
	if remote.IsNotFound(err) {
		klog.V(4).Infof("Tag %q of %s is gone, using %s from the event", name, t.source, sha)
		return sha, true, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get tag %q: %w", name, err)
	}
	if tag.Commit == nil || tag.Commit.SHA == "" {
		klog.Warningf("Ignoring tag %q of %s without a commit", name, t.source)
		return "", false, nil
	}
	return tag.Commit.SHA, true, nil
}

func (t *Translator) create(ctx context.Context, ev Event) (model.Delta, error) {
	e, err := as[CreateEvent](ev)
	if err != nil {
		return nil, err
	}
	d := model.Delta{}
	if IsZeroSHA(e.SHA) {
		klog.Warningf("Ignoring create event for %s %q of %s without a commit", e.RefType, e.Ref, t.source)
		return d, nil
	}
	switch e.RefType {
	case RefBranch:
		err = t.putBranch(ctx, d, model.Created, strings.TrimPrefix(e.Ref, branchRefPrefix), e.SHA)
	case RefTag:
		err = t.putTag(ctx, d, model.Created, strings.TrimPrefix(e.Ref, tagRefPrefix), e.SHA)
	default:
		klog.V(4).Infof("Ignoring create event for ref type %q", e.RefType)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (t *Translator) delete(ctx context.Context, ev Event) (model.Delta, error) {
	e, err := as[DeleteEvent](ev)
	if err != nil {
		return nil, err
	}
	d := model.Delta{}
	switch e.RefType {
	case RefBranch:
		t.removeBranch(d, strings.TrimPrefix(e.Ref, branchRefPrefix))
	case RefTag:
		err = t.removeTag(ctx, d, strings.TrimPrefix(e.Ref, tagRefPrefix))
	default:
		klog.V(4).Infof("Ignoring delete event for ref type %q", e.RefType)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// push maps a ref update. A zero Before creates the head, a zero After
// removes it, and anything else updates it.
func (t *Translator) push(ctx context.Context, ev Event) (model.Delta, error) {
	e, err := as[PushEvent](ev)
	if err != nil {
		return nil, err
	}
	d := model.Delta{}

	absentBefore, absentAfter := IsZeroSHA(e.Before), IsZeroSHA(e.After)
	if absentBefore && absentAfter {
		return d, nil
	}
	ct := model.Updated
	if absentBefore {
		ct = model.Created
	}

	switch {
	case strings.HasPrefix(e.Ref, branchRefPrefix):
		name := strings.TrimPrefix(e.Ref, branchRefPrefix)
		if absentAfter {
			t.removeBranch(d, name)
		} else {
			err = t.putBranch(ctx, d, ct, name, e.After)
		}
	case strings.HasPrefix(e.Ref, tagRefPrefix):
		name := strings.TrimPrefix(e.Ref, tagRefPrefix)
		if absentAfter {
			err = t.removeTag(ctx, d, name)
		} else {
			err = t.putTag(ctx, d, ct, name, e.After)
		}
	default:
		klog.V(4).Infof("Ignoring push to %s", e.Ref)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (t *Translator) pullRequest(_ context.Context, ev Event) (model.Delta, error) {
	e, err := as[PullRequestEvent](ev)
	if err != nil {
		return nil, err
	}
	d := model.Delta{}
	pr := e.PullRequest

	if pr.Head.Owner == "" || pr.Head.Repo == "" {
		if e.Action == PullRequestClosed {
			t.removeOrphanedPullRequest(d, pr.Number)
			return d, nil
		}
		klog.Warningf("Ignoring pull request #%d of %s: its origin repository no longer exists", pr.Number, t.source)
		return d, nil
	}
	revs := discovery.PullRequestRevisions(t.policy, t.source, pr)

	switch e.Action {
	case PullRequestOpened, PullRequestReopened, PullRequestSynchronized, "synchronize", PullRequestEdited:
		if !strings.EqualFold(pr.State, string(remote.PullRequestOpen)) {
			klog.V(4).Infof("Ignoring %s pull request #%d in state %q", e.Action, pr.Number, pr.State)
			return d, nil
		}
		ct := model.Updated
		if e.Action == PullRequestOpened || e.Action == PullRequestReopened {
			ct = model.Created
		}
		for _, rev := range revs {
			d.Put(ct, rev)
		}
	case PullRequestClosed:
		for _, rev := range revs {
			d.Remove(rev.PullRequest)
		}
	default:
		klog.V(4).Infof("Ignoring pull request action %q", e.Action)
	}
	return d, nil
}

// removeOrphanedPullRequest removes every head pull request n may have been
// discovered as. Its origin repository is gone, so whether it came from a
// fork is unknown.
func (t *Translator) removeOrphanedPullRequest(d model.Delta, n int64) {
	var groups [][]model.CheckoutStrategy
	if t.policy.WantOriginPRs {
		groups = append(groups, sets.List(t.policy.OriginStrategies))
	}
	if t.policy.WantForkPRs {
		groups = append(groups, sets.List(t.policy.ForkStrategies))
	}
	for _, strategies := range groups {
		for _, strategy := range strategies {
			d.Remove(model.PullRequestHead{
				DisplayName: model.PullRequestName(n, strategy, len(strategies)),
				ID:          n,
				Strategy:    strategy,
			})
		}
	}
}

func (t *Translator) release(ctx context.Context, ev Event) (model.Delta, error) {
	e, err := as[ReleaseEvent](ev)
	if err != nil {
		return nil, err
	}
	d := model.Delta{}
	rel := e.Release
	if !t.policy.WantReleases {
		return d, nil
	}

	switch e.Action {
	case ReleasePublished, ReleaseUpdated, "edited":
		if rel.Draft {
			return d, nil
		}
		if rel.Prerelease && !t.policy.Releases.IncludePreReleases {
			return d, nil
		}
		if t.lookup == nil {
			klog.Warningf("Ignoring release %d of %s: no remote to resolve tag %q", rel.ID, t.source, rel.TagName)
			return d, nil
		}
		rev, err := discovery.ReleaseRevision(ctx, t.lookup, t.source, rel)
		if remote.IsNotFound(err) {
			klog.Warningf("Ignoring release %d of %s: %v", rel.ID, t.source, err)
			return d, nil
		}
		if err != nil {
			return nil, err
		}
		ct := model.Updated
		if e.Action == ReleasePublished {
			ct = model.Created
		}
		d.Put(ct, rev)
	case ReleaseDeleted:
		if rel.TagName != "" {
			d.Remove(model.ReleaseHead{TagName: rel.TagName, ReleaseID: rel.ID})
		}
	default:
		klog.V(4).Infof("Ignoring release action %q", e.Action)
	}
	return d, nil
}

func (t *Translator) repository(ctx context.Context, ev Event) (model.Delta, error) {
	e, err := as[RepositoryEvent](ev)
	if err != nil {
		return nil, err
	}
	for _, l := range t.listeners {
		l.SourceChanged(ctx, t.source, e)
	}
	return model.Delta{}, nil
}
