package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bjulian5/scmsource/internal/remote"
)

// FakeRemote is an in-memory remote.Client over a mutable repository
// state. Listings are returned in a stable order and every call is counted.
type FakeRemote struct {
	mu sync.Mutex

	Repo          remote.Repository
	Version       string
	Branches      map[string]string
	Tags          map[string]remote.Tag
	AnnotatedTags map[string]remote.AnnotatedTag
	Commits       map[string]remote.Commit
	PullRequests  map[int64]remote.PullRequest
	Releases      map[int64]remote.Release
	Collaborators []string

	// CollaboratorsErr is returned by ListCollaborators when set.
	CollaboratorsErr error
	// TagPageSize is the number of tags per ListTags page; 0 means one page.
	TagPageSize int

	calls map[string]int
}

// NewFakeRemote returns an empty repository owner/name.
func NewFakeRemote(owner, name string) *FakeRemote {
	return &FakeRemote{
		Repo: remote.Repository{
			Owner:         owner,
			Name:          name,
			HTMLURL:       "https://git.example.com/" + owner + "/" + name,
			DefaultBranch: "main",
			Permissions:   remote.Permissions{Pull: true},
		},
		Branches:      map[string]string{},
		Tags:          map[string]remote.Tag{},
		AnnotatedTags: map[string]remote.AnnotatedTag{},
		Commits:       map[string]remote.Commit{},
		PullRequests:  map[int64]remote.PullRequest{},
		Releases:      map[int64]remote.Release{},
		calls:         map[string]int{},
	}
}

var _ remote.Client = (*FakeRemote)(nil)

// Calls returns how many times method was called.
func (f *FakeRemote) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *FakeRemote) record(method string) {
	f.calls[method]++
}

func (f *FakeRemote) is(owner, repo string) bool {
	return strings.EqualFold(owner, f.Repo.Owner) && strings.EqualFold(repo, f.Repo.Name)
}

func (f *FakeRemote) GetRepository(_ context.Context, owner, repo string) (*remote.Repository, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetRepository")
	if !f.is(owner, repo) {
		return nil, remote.NotFoundf("repository %s/%s", owner, repo)
	}
	r := f.Repo
	return &r, nil
}

func (f *FakeRemote) ServerVersion(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ServerVersion")
	return f.Version, nil
}

func (f *FakeRemote) ListBranches(_ context.Context, owner, repo string) ([]remote.Branch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListBranches")
	if !f.is(owner, repo) {
		return nil, remote.NotFoundf("repository %s/%s", owner, repo)
	}
	out := make([]remote.Branch, 0, len(f.Branches))
	for name, sha := range f.Branches {
		out = append(out, remote.Branch{Name: name, SHA: sha})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *FakeRemote) ListTags(_ context.Context, owner, repo string, page int) ([]remote.Tag, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListTags")
	if !f.is(owner, repo) {
		return nil, 0, remote.NotFoundf("repository %s/%s", owner, repo)
	}
	all := make([]remote.Tag, 0, len(f.Tags))
	for _, t := range f.Tags {
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	if f.TagPageSize <= 0 {
		return all, 0, nil
	}
	start := (page - 1) * f.TagPageSize
	if start >= len(all) {
		return nil, 0, nil
	}
	end := start + f.TagPageSize
	if end >= len(all) {
		return all[start:], 0, nil
	}
	return all[start:end], page + 1, nil
}

func (f *FakeRemote) GetTag(_ context.Context, owner, repo, name string) (*remote.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetTag")
	t, ok := f.Tags[name]
	if !f.is(owner, repo) || !ok {
		return nil, remote.NotFoundf("tag %s", name)
	}
	return &t, nil
}

func (f *FakeRemote) GetAnnotatedTag(_ context.Context, owner, repo, sha string) (*remote.AnnotatedTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetAnnotatedTag")
	t, ok := f.AnnotatedTags[sha]
	if !f.is(owner, repo) || !ok {
		return nil, remote.NotFoundf("tag object %s", sha)
	}
	return &t, nil
}

func (f *FakeRemote) GetCommit(_ context.Context, owner, repo, sha string) (*remote.Commit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetCommit")
	c, ok := f.Commits[sha]
	if !f.is(owner, repo) || !ok {
		return nil, remote.NotFoundf("commit %s", sha)
	}
	return &c, nil
}

func (f *FakeRemote) ListPullRequests(_ context.Context, owner, repo string, state remote.PullRequestState) ([]remote.PullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListPullRequests")
	if !f.is(owner, repo) {
		return nil, remote.NotFoundf("repository %s/%s", owner, repo)
	}
	var out []remote.PullRequest
	for _, pr := range f.PullRequests {
		if state == remote.PullRequestAll || pr.State == string(state) {
			out = append(out, pr)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (f *FakeRemote) ListReleases(_ context.Context, owner, repo string) ([]remote.Release, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListReleases")
	if !f.is(owner, repo) {
		return nil, remote.NotFoundf("repository %s/%s", owner, repo)
	}
	out := make([]remote.Release, 0, len(f.Releases))
	for _, r := range f.Releases {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *FakeRemote) ListCollaborators(_ context.Context, owner, repo string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListCollaborators")
	if f.CollaboratorsErr != nil {
		return nil, f.CollaboratorsErr
	}
	if !f.is(owner, repo) {
		return nil, remote.NotFoundf("repository %s/%s", owner, repo)
	}
	return append([]string(nil), f.Collaborators...), nil
}

// SetBranch points branch name at sha.
func (f *FakeRemote) SetBranch(name, sha string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Branches[name] = sha
}

// DeleteBranch removes branch name.
func (f *FakeRemote) DeleteBranch(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Branches, name)
}

// SetLightweightTag points tag name directly at commit sha.
func (f *FakeRemote) SetLightweightTag(name, sha string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Tags[name] = remote.Tag{Name: name, ID: sha, Commit: &remote.CommitRef{SHA: sha}}
}

// SetAnnotatedTag points tag name at the tag object objectSHA, which in turn
// targets commit sha.
func (f *FakeRemote) SetAnnotatedTag(name, objectSHA, sha string, taggedAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Tags[name] = remote.Tag{Name: name, ID: objectSHA, Commit: &remote.CommitRef{SHA: sha}}
	f.AnnotatedTags[objectSHA] = remote.AnnotatedTag{SHA: objectSHA, TaggerAt: taggedAt, TargetSHA: sha}
}

// DeleteTag removes tag name.
func (f *FakeRemote) DeleteTag(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Tags, name)
}

// SetPullRequest adds or replaces a pull request.
func (f *FakeRemote) SetPullRequest(pr remote.PullRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PullRequests[pr.Number] = pr
}

// SetRelease adds or replaces a release.
func (f *FakeRemote) SetRelease(r remote.Release) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Releases[r.ID] = r
}

// DeleteRelease removes release id.
func (f *FakeRemote) DeleteRelease(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Releases, id)
}
