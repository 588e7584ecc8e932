// Package git serves a local git repository as a remote.
//
// A local repository has no pull requests, releases or collaborators. It is
// reported as a mirror with full permissions, so discovery finds its
// branches and tags only.
package git

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/bjulian5/scmsource/internal/remote"
)

// tagsPerPage is the ListTags page size.
const tagsPerPage = 100

// Client implements remote.Client over a go-git repository.
type Client struct {
	repo    *gogit.Repository
	owner   string
	name    string
	htmlURL string
}

var _ remote.Client = (*Client)(nil)

// Open opens the repository containing path and serves it as owner/name.
func Open(path, owner, name string) (*Client, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	c := NewFromRepository(repo, owner, name)
	c.htmlURL = "file://" + filepath.ToSlash(abs)
	return c, nil
}

// NewFromRepository serves an open repository as owner/name.
func NewFromRepository(repo *gogit.Repository, owner, name string) *Client {
	return &Client{repo: repo, owner: owner, name: name}
}

func (c *Client) check(owner, repo string) error {
	if !strings.EqualFold(owner, c.owner) || !strings.EqualFold(repo, c.name) {
		return remote.NotFoundf("repository %s/%s", owner, repo)
	}
	return nil
}

func (c *Client) GetRepository(_ context.Context, owner, repo string) (*remote.Repository, error) {
	if err := c.check(owner, repo); err != nil {
		return nil, err
	}
	var defaultBranch string
	if head, err := c.repo.Storer.Reference(plumbing.HEAD); err == nil && head.Type() == plumbing.SymbolicReference {
		defaultBranch = head.Target().Short()
	}
	return &remote.Repository{
		Owner:         c.owner,
		Name:          c.name,
		HTMLURL:       c.htmlURL,
		DefaultBranch: defaultBranch,
		Mirror:        true,
		Permissions:   remote.Permissions{Admin: true, Push: true, Pull: true},
	}, nil
}

// ServerVersion is unknown for a local repository.
func (c *Client) ServerVersion(context.Context) (string, error) {
	return "", nil
}

func (c *Client) ListBranches(_ context.Context, owner, repo string) ([]remote.Branch, error) {
	if err := c.check(owner, repo); err != nil {
		return nil, err
	}
	iter, err := c.repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	var out []remote.Branch
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		out = append(out, remote.Branch{Name: ref.Name().Short(), SHA: ref.Hash().String()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (c *Client) ListTags(_ context.Context, owner, repo string, page int) ([]remote.Tag, int, error) {
	if err := c.check(owner, repo); err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	iter, err := c.repo.Tags()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tags: %w", err)
	}
	var refs []*plumbing.Reference
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		refs = append(refs, ref)
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tags: %w", err)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name().Short() < refs[j].Name().Short() })

	start := (page - 1) * tagsPerPage
	if start >= len(refs) {
		return nil, 0, nil
	}
	end := min(start+tagsPerPage, len(refs))
	next := 0
	if end < len(refs) {
		next = page + 1
	}

	out := make([]remote.Tag, 0, end-start)
	for _, ref := range refs[start:end] {
		tag, err := c.tag(ref)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, tag)
	}
	return out, next, nil
}

func (c *Client) GetTag(_ context.Context, owner, repo, name string) (*remote.Tag, error) {
	if err := c.check(owner, repo); err != nil {
		return nil, err
	}
	ref, err := c.repo.Tag(name)
	if err != nil {
		if errors.Is(err, gogit.ErrTagNotFound) {
			return nil, remote.NotFoundf("tag %s", name)
		}
		return nil, fmt.Errorf("failed to read tag %s: %w", name, err)
	}
	tag, err := c.tag(ref)
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// tag resolves a tag reference. A reference that points at a tag object is
// annotated and carries the object's id.
func (c *Client) tag(ref *plumbing.Reference) (remote.Tag, error) {
	tag := remote.Tag{Name: ref.Name().Short(), ID: ref.Hash().String()}
	obj, err := c.repo.TagObject(ref.Hash())
	switch {
	case errors.Is(err, plumbing.ErrObjectNotFound):
		tag.Commit = &remote.CommitRef{SHA: ref.Hash().String()}
	case err != nil:
		return remote.Tag{}, fmt.Errorf("failed to read tag %s: %w", tag.Name, err)
	default:
		tag.Commit = &remote.CommitRef{SHA: obj.Target.String()}
		tag.TaggerAt = obj.Tagger.When
	}
	return tag, nil
}

func (c *Client) GetAnnotatedTag(_ context.Context, owner, repo, sha string) (*remote.AnnotatedTag, error) {
	if err := c.check(owner, repo); err != nil {
		return nil, err
	}
	obj, err := c.repo.TagObject(plumbing.NewHash(sha))
	if err != nil {
		return nil, notFound(err, "tag object %s", sha)
	}
	return &remote.AnnotatedTag{
		SHA:       obj.Hash.String(),
		TaggerAt:  obj.Tagger.When,
		TargetSHA: obj.Target.String(),
	}, nil
}

func (c *Client) GetCommit(_ context.Context, owner, repo, sha string) (*remote.Commit, error) {
	if err := c.check(owner, repo); err != nil {
		return nil, err
	}
	commit, err := c.repo.CommitObject(plumbing.NewHash(sha))
	if err != nil {
		return nil, notFound(err, "commit %s", sha)
	}
	return toCommit(commit), nil
}

func toCommit(c *object.Commit) *remote.Commit {
	return &remote.Commit{SHA: c.Hash.String(), CommittedAt: c.Committer.When}
}

func (c *Client) ListPullRequests(_ context.Context, owner, repo string, _ remote.PullRequestState) ([]remote.PullRequest, error) {
	return nil, c.check(owner, repo)
}

func (c *Client) ListReleases(_ context.Context, owner, repo string) ([]remote.Release, error) {
	return nil, c.check(owner, repo)
}

func (c *Client) ListCollaborators(_ context.Context, owner, repo string) ([]string, error) {
	return nil, c.check(owner, repo)
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		return remote.NotFoundf(format, args...)
	}
	return fmt.Errorf("failed to read %s: %w", fmt.Sprintf(format, args...), err)
}
