package discovery

import (
	"context"
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/klog/v2"

	"github.com/bjulian5/scmsource/internal/model"
	"github.com/bjulian5/scmsource/internal/policy"
	"github.com/bjulian5/scmsource/internal/remote"
	"github.com/bjulian5/scmsource/internal/trust"
)

// snapshot caches what a session has fetched. Each field is fetched at most
// once; a nil field has not been fetched yet.
type snapshot struct {
	repository    *remote.Repository
	version       *remote.ServerVersion
	versionLoaded bool
	branches      []remote.Branch
	pullRequests  []remote.PullRequest
	collaborators sets.Set[string]
}

// Repository returns the repository metadata.
func (s *Session) Repository(ctx context.Context) (*remote.Repository, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if s.snap.repository != nil {
		return s.snap.repository, nil
	}
	repo, err := s.client.GetRepository(ctx, s.source.Owner, s.source.Repository)
	if err != nil {
		return nil, fmt.Errorf("failed to get repository %s: %w", s.source, err)
	}
	s.snap.repository = repo
	return repo, nil
}

// ServerVersion returns the server's version. A nil version is unknown.
func (s *Session) ServerVersion(ctx context.Context) (*remote.ServerVersion, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if s.snap.versionLoaded {
		return s.snap.version, nil
	}
	raw, err := s.client.ServerVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get server version: %w", err)
	}
	s.snap.version = remote.ParseServerVersion(raw)
	s.snap.versionLoaded = true
	klog.V(4).Infof("[%s] Server version is %s", s.id, s.snap.version)
	return s.snap.version, nil
}

// Branches returns the repository's branches.
func (s *Session) Branches(ctx context.Context) ([]remote.Branch, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if s.snap.branches != nil {
		return s.snap.branches, nil
	}
	branches, err := s.client.ListBranches(ctx, s.source.Owner, s.source.Repository)
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	if branches == nil {
		branches = []remote.Branch{}
	}
	s.snap.branches = branches
	return branches, nil
}

// PullRequests returns the open pull requests. Mirrors have none.
func (s *Session) PullRequests(ctx context.Context) ([]remote.PullRequest, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if s.snap.pullRequests != nil {
		return s.snap.pullRequests, nil
	}
	repo, err := s.Repository(ctx)
	if err != nil {
		return nil, err
	}
	if repo.Mirror {
		s.snap.pullRequests = []remote.PullRequest{}
		return s.snap.pullRequests, nil
	}
	prs, err := s.client.ListPullRequests(ctx, s.source.Owner, s.source.Repository, remote.PullRequestOpen)
	if err != nil {
		return nil, fmt.Errorf("failed to list pull requests: %w", err)
	}
	if prs == nil {
		prs = []remote.PullRequest{}
	}
	s.snap.pullRequests = prs
	return prs, nil
}

// Collaborators returns the lower-cased logins of the repository's
// collaborators. When they cannot be read, either because the server only
// lets admins list them or because the listing is forbidden, the policy's
// collaborator gap setting decides between an empty set and
// trust.ErrCollaboratorsUnavailable.
func (s *Session) Collaborators(ctx context.Context) (sets.Set[string], error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if s.snap.collaborators != nil {
		return s.snap.collaborators, nil
	}
	repo, err := s.Repository(ctx)
	if err != nil {
		return nil, err
	}
	version, err := s.ServerVersion(ctx)
	if err != nil {
		return nil, err
	}
	if !version.AtLeast(remote.CollaboratorsMinVersion) && !repo.Permissions.Admin {
		return s.collaboratorGap(fmt.Sprintf("server version %s only lets admins list collaborators", version))
	}

	logins, err := s.client.ListCollaborators(ctx, s.source.Owner, s.source.Repository)
	if remote.IsForbidden(err) {
		return s.collaboratorGap("listing collaborators is forbidden")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list collaborators: %w", err)
	}
	names := sets.New[string]()
	for _, login := range logins {
		names.Insert(strings.ToLower(login))
	}
	s.snap.collaborators = names
	return names, nil
}

func (s *Session) collaboratorGap(reason string) (sets.Set[string], error) {
	if s.policy.CollaboratorGap == policy.GapFail {
		return nil, fmt.Errorf("%w for %s: %s", trust.ErrCollaboratorsUnavailable, s.source, reason)
	}
	klog.Warningf("[%s] Not reading collaborators of %s, %s; fork pull requests will be untrusted", s.id, s.source, reason)
	s.snap.collaborators = sets.New[string]()
	return s.snap.collaborators, nil
}

// filtersActive reports whether branch filters apply in this session.
// Filters only make sense when pull requests are discovered and the
// repository can have any.
func (s *Session) filtersActive(ctx context.Context) (bool, error) {
	if len(s.policy.Filters) == 0 || !s.policy.WantPullRequests() {
		return false, nil
	}
	repo, err := s.Repository(ctx)
	if err != nil {
		return false, err
	}
	return !repo.Mirror, nil
}

// Excluded reports whether the policy's branch filters drop head. It is
// false when filters do not apply to this session.
func (s *Session) Excluded(ctx context.Context, head model.Head) (bool, error) {
	if err := s.check(); err != nil {
		return false, err
	}
	active, err := s.filtersActive(ctx)
	if err != nil || !active {
		return false, err
	}
	return s.excluded(ctx, head)
}

// excluded reports whether any configured filter drops head.
func (s *Session) excluded(ctx context.Context, head model.Head) (bool, error) {
	for _, f := range s.policy.Filters {
		drop, err := f.Exclude(ctx, s, head)
		if err != nil {
			return false, fmt.Errorf("filter %s failed on %s: %w", f.Name(), head.Name(), err)
		}
		if drop {
			klog.V(4).Infof("[%s] %s %q excluded by %s", s.id, head.Kind(), head.Name(), f.Name())
			return true, nil
		}
	}
	return false, nil
}
