package discovery

import (
	"context"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/bjulian5/scmsource/internal/model"
	"github.com/bjulian5/scmsource/internal/policy"
	"github.com/bjulian5/scmsource/internal/remote"
)

func (s *Session) discoverBranches(ctx context.Context, p *pass) (bool, error) {
	ctx, span := tracer.Start(ctx, "Session.discoverBranches")
	defer span.End()

	branches, err := s.Branches(ctx)
	if err != nil {
		return false, err
	}
	filtered, err := s.filtersActive(ctx)
	if err != nil {
		return false, err
	}

	for _, b := range branches {
		if b.Name == "" || b.SHA == "" {
			klog.Warningf("[%s] Skipping branch %q of %s without a commit", s.id, b.Name, s.source)
			continue
		}
		rev := model.NewBranchRevision(b.Name, b.SHA)
		if filtered {
			drop, err := s.excluded(ctx, rev.Branch)
			if err != nil {
				return false, err
			}
			if drop {
				continue
			}
		}
		stop, err := p.offer(ctx, rev)
		if err != nil || stop {
			return stop, err
		}
	}
	return false, nil
}

func (s *Session) discoverPullRequests(ctx context.Context, p *pass) (bool, error) {
	ctx, span := tracer.Start(ctx, "Session.discoverPullRequests")
	defer span.End()

	repo, err := s.Repository(ctx)
	if err != nil {
		return false, err
	}
	if repo.Mirror {
		klog.V(2).Infof("[%s] %s is a mirror, skipping pull requests", s.id, s.source)
		return false, nil
	}
	prs, err := s.PullRequests(ctx)
	if err != nil {
		return false, err
	}

	for _, pr := range prs {
		if pr.Head.Owner == "" || pr.Head.Repo == "" {
			klog.Warningf("[%s] Skipping pull request #%d of %s: its origin repository no longer exists", s.id, pr.Number, s.source)
			continue
		}
		for _, rev := range PullRequestRevisions(s.policy, s.source, pr) {
			stop, err := p.offer(ctx, rev)
			if err != nil || stop {
				return stop, err
			}
		}
	}
	return false, nil
}

func (s *Session) discoverTags(ctx context.Context, p *pass) (bool, error) {
	ctx, span := tracer.Start(ctx, "Session.discoverTags")
	defer span.End()

	version, err := s.ServerVersion(ctx)
	if err != nil {
		return false, err
	}
	if !version.AtLeast(remote.TagsMinVersion) {
		klog.Warningf("[%s] Ignoring tags of %s: server version %s predates the tag API (%s)",
			s.id, s.source, version, remote.TagsMinVersion)
		return false, nil
	}

	for page := 1; page != 0; {
		tags, next, err := s.client.ListTags(ctx, s.source.Owner, s.source.Repository, page)
		if err != nil {
			return false, fmt.Errorf("failed to list tags (page %d): %w", page, err)
		}
		for _, tag := range tags {
			if tag.Commit == nil || tag.Commit.SHA == "" {
				klog.Warningf("[%s] Skipping tag %q of %s without a commit", s.id, tag.Name, s.source)
				continue
			}
			ts, err := s.tagTimestamp(ctx, tag)
			if err != nil {
				return false, err
			}
			rev := model.TagRevision{
				Tag:  model.TagHead{TagName: tag.Name, Timestamp: ts},
				Hash: tag.Commit.SHA,
			}
			stop, err := p.offer(ctx, rev)
			if err != nil || stop {
				return stop, err
			}
		}
		if next != 0 && next <= page {
			return false, fmt.Errorf("tag listing did not advance past page %d", page)
		}
		page = next
	}
	return false, nil
}

// tagTimestamp resolves the time a tag was made, in milliseconds. Annotated
// tags use their tagger date; otherwise, or when the tag object is gone, the
// commit date is used. When neither can be found the timestamp is 0.
func (s *Session) tagTimestamp(ctx context.Context, tag remote.Tag) (int64, error) {
	owner, repo := s.source.Owner, s.source.Repository

	if tag.IsAnnotated() && !tag.TaggerAt.IsZero() {
		return tag.TaggerAt.UnixMilli(), nil
	}
	if tag.IsAnnotated() {
		annotated, err := s.client.GetAnnotatedTag(ctx, owner, repo, tag.ID)
		switch {
		case err == nil:
			if !annotated.TaggerAt.IsZero() {
				return annotated.TaggerAt.UnixMilli(), nil
			}
		case remote.IsNotFound(err):
			klog.V(4).Infof("[%s] Tag object %s of %q not found, using the commit date", s.id, tag.ID, tag.Name)
		default:
			return 0, fmt.Errorf("failed to get tag object %s of %q: %w", tag.ID, tag.Name, err)
		}
	}

	commit, err := s.client.GetCommit(ctx, owner, repo, tag.Commit.SHA)
	switch {
	case err == nil:
		if commit.CommittedAt.IsZero() {
			return 0, nil
		}
		return commit.CommittedAt.UnixMilli(), nil
	case remote.IsNotFound(err):
		klog.V(4).Infof("[%s] Commit %s of tag %q not found, timestamp unknown", s.id, tag.Commit.SHA, tag.Name)
		return 0, nil
	default:
		return 0, fmt.Errorf("failed to get commit %s of tag %q: %w", tag.Commit.SHA, tag.Name, err)
	}
}

func (s *Session) discoverReleases(ctx context.Context, p *pass) (bool, error) {
	ctx, span := tracer.Start(ctx, "Session.discoverReleases")
	defer span.End()

	releases, err := s.client.ListReleases(ctx, s.source.Owner, s.source.Repository)
	if err != nil {
		return false, fmt.Errorf("failed to list releases: %w", err)
	}

	opts := s.policy.Releases
	for _, rel := range releases {
		if rel.Draft && !opts.IncludeDrafts {
			continue
		}
		if rel.Prerelease && !opts.IncludePreReleases {
			continue
		}
		rev, err := ReleaseRevision(ctx, s.client, s.source, rel)
		if remote.IsNotFound(err) {
			klog.Warningf("[%s] Skipping release %d of %s: %v", s.id, rel.ID, s.source, err)
			continue
		}
		if err != nil {
			return false, err
		}
		stop, err := p.offer(ctx, rev)
		if err != nil || stop {
			return stop, err
		}
	}
	return false, nil
}

// PullRequestRevisions returns one revision per checkout strategy that p
// applies to pr. A pull request whose kind of origin is not discovered
// yields none.
func PullRequestRevisions(p *policy.Policy, src model.Source, pr remote.PullRequest) []model.PullRequestRevision {
	origin := model.ClassifyOrigin(src.Owner, src.Repository, pr.Head.Owner, pr.Head.Repo)
	strategies := p.StrategiesFor(origin)
	if len(strategies) == 0 {
		return nil
	}

	target := model.NewBranchRevision(pr.Base.Ref, pr.Base.SHA)
	head := model.NewBranchRevision(pr.Head.Ref, pr.Head.SHA)
	revs := make([]model.PullRequestRevision, 0, len(strategies))
	for _, strategy := range strategies {
		revs = append(revs, model.PullRequestRevision{
			PullRequest: model.PullRequestHead{
				DisplayName:      model.PullRequestName(pr.Number, strategy, len(strategies)),
				ID:               pr.Number,
				Target:           target.Branch,
				Strategy:         strategy,
				Origin:           origin,
				OriginOwner:      pr.Head.Owner,
				OriginRepo:       pr.Head.Repo,
				OriginBranchName: pr.Head.Ref,
			},
			Target: target,
			Origin: head,
		})
	}
	return revs
}

// TagLookup resolves a tag by name.
type TagLookup interface {
	GetTag(ctx context.Context, owner, repo, name string) (*remote.Tag, error)
}

// ReleaseRevision binds rel to the commit its tag points at. It returns an
// error wrapping remote.ErrNotFound when the tag does not exist or has no
// commit.
func ReleaseRevision(ctx context.Context, tags TagLookup, src model.Source, rel remote.Release) (model.ReleaseRevision, error) {
	if rel.TagName == "" {
		return model.ReleaseRevision{}, remote.NotFoundf("release %d has no tag", rel.ID)
	}
	tag, err := tags.GetTag(ctx, src.Owner, src.Repository, rel.TagName)
	if err != nil {
		return model.ReleaseRevision{}, fmt.Errorf("failed to get tag %q of release %d: %w", rel.TagName, rel.ID, err)
	}
	if tag.Commit == nil || tag.Commit.SHA == "" {
		return model.ReleaseRevision{}, remote.NotFoundf("tag %q of release %d has no commit", rel.TagName, rel.ID)
	}
	return model.ReleaseRevision{
		Release: model.ReleaseHead{TagName: rel.TagName, ReleaseID: rel.ID},
		Hash:    tag.Commit.SHA,
	}, nil
}
