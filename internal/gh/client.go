package gh

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v75/github"
	"k8s.io/klog/v2"

	"github.com/bjulian5/scmsource/internal/remote"
)

const (
	perPage = 100

	// versionHeader is sent by GitHub Enterprise Server on every response.
	versionHeader = "X-GitHub-Enterprise-Version"
)

// Client implements remote.Client over the GitHub REST API.
type Client struct {
	gh *github.Client
}

var _ remote.Client = (*Client)(nil)

// NewClient creates a client for serverURL. github.com and its API host use
// the public API; any other server is treated as GitHub Enterprise. An
// empty token makes anonymous requests.
func NewClient(serverURL, token string) (*Client, error) {
	gh := github.NewClient(nil)
	if token != "" {
		gh = gh.WithAuthToken(token)
	}
	host := strings.ToLower(strings.TrimSuffix(serverURL, "/"))
	if host != "" && host != "https://github.com" && host != "https://api.github.com" {
		var err error
		gh, err = gh.WithEnterpriseURLs(serverURL, serverURL)
		if err != nil {
			return nil, fmt.Errorf("invalid server URL %s: %w", serverURL, err)
		}
	}
	return &Client{gh: gh}, nil
}

// NewFromClient wraps an already configured go-github client.
func NewFromClient(gh *github.Client) *Client {
	return &Client{gh: gh}
}

// repositoryJSON carries the fields go-github does not model the way
// discovery needs them.
type repositoryJSON struct {
	Name          string `json:"name"`
	HTMLURL       string `json:"html_url"`
	DefaultBranch string `json:"default_branch"`
	MirrorURL     string `json:"mirror_url"`
	Owner         struct {
		Login string `json:"login"`
	} `json:"owner"`
	Permissions struct {
		Admin bool `json:"admin"`
		Push  bool `json:"push"`
		Pull  bool `json:"pull"`
	} `json:"permissions"`
}

func (c *Client) GetRepository(ctx context.Context, owner, repo string) (*remote.Repository, error) {
	req, err := c.gh.NewRequest(http.MethodGet, fmt.Sprintf("repos/%s/%s", url.PathEscape(owner), url.PathEscape(repo)), nil)
	if err != nil {
		return nil, err
	}
	var r repositoryJSON
	if _, err := c.gh.Do(ctx, req, &r); err != nil {
		return nil, wrap(err, "repository %s/%s", owner, repo)
	}
	return &remote.Repository{
		Owner:         r.Owner.Login,
		Name:          r.Name,
		HTMLURL:       r.HTMLURL,
		DefaultBranch: r.DefaultBranch,
		Mirror:        r.MirrorURL != "",
		Permissions: remote.Permissions{
			Admin: r.Permissions.Admin,
			Push:  r.Permissions.Push,
			Pull:  r.Permissions.Pull,
		},
	}, nil
}

// ServerVersion reads the enterprise version header of the meta endpoint.
// github.com does not send one.
func (c *Client) ServerVersion(ctx context.Context) (string, error) {
	req, err := c.gh.NewRequest(http.MethodGet, "meta", nil)
	if err != nil {
		return "", err
	}
	resp, err := c.gh.Do(ctx, req, nil)
	if err != nil {
		return "", wrap(err, "server metadata")
	}
	return resp.Header.Get(versionHeader), nil
}

func (c *Client) ListBranches(ctx context.Context, owner, repo string) ([]remote.Branch, error) {
	opts := &github.BranchListOptions{ListOptions: github.ListOptions{PerPage: perPage}}
	var out []remote.Branch
	for {
		branches, resp, err := c.gh.Repositories.ListBranches(ctx, owner, repo, opts)
		if err != nil {
			return nil, wrap(err, "branches of %s/%s", owner, repo)
		}
		for _, b := range branches {
			out = append(out, remote.Branch{Name: b.GetName(), SHA: b.GetCommit().GetSHA()})
		}
		if resp.NextPage == 0 {
			return out, nil
		}
		opts.Page = resp.NextPage
	}
}

// ListTags lists tag references so annotated tags keep their object id.
// The commit of an annotated tag costs one more request.
func (c *Client) ListTags(ctx context.Context, owner, repo string, page int) ([]remote.Tag, int, error) {
	opts := &github.ReferenceListOptions{
		Ref:         "tags",
		ListOptions: github.ListOptions{Page: page, PerPage: perPage},
	}
	refs, resp, err := c.gh.Git.ListMatchingRefs(ctx, owner, repo, opts)
	if err != nil {
		return nil, 0, wrap(err, "tags of %s/%s", owner, repo)
	}
	out := make([]remote.Tag, 0, len(refs))
	for _, ref := range refs {
		tag, err := c.tagFromRef(ctx, owner, repo, ref)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, tag)
	}
	return out, resp.NextPage, nil
}

func (c *Client) GetTag(ctx context.Context, owner, repo, name string) (*remote.Tag, error) {
	ref, _, err := c.gh.Git.GetRef(ctx, owner, repo, "tags/"+name)
	if err != nil {
		return nil, wrap(err, "tag %s of %s/%s", name, owner, repo)
	}
	tag, err := c.tagFromRef(ctx, owner, repo, ref)
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

func (c *Client) tagFromRef(ctx context.Context, owner, repo string, ref *github.Reference) (remote.Tag, error) {
	name := strings.TrimPrefix(ref.GetRef(), "refs/tags/")
	obj := ref.GetObject()
	tag := remote.Tag{Name: name, ID: obj.GetSHA()}
	if obj.GetType() != "tag" {
		if obj.GetSHA() != "" {
			tag.Commit = &remote.CommitRef{SHA: obj.GetSHA()}
		}
		return tag, nil
	}
	annotated, _, err := c.gh.Git.GetTag(ctx, owner, repo, obj.GetSHA())
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			klog.Warningf("Tag object %s of %s in %s/%s is missing", obj.GetSHA(), name, owner, repo)
			return tag, nil
		}
		return remote.Tag{}, wrap(err, "tag object %s of %s/%s", obj.GetSHA(), owner, repo)
	}
	if sha := annotated.GetObject().GetSHA(); sha != "" {
		tag.Commit = &remote.CommitRef{SHA: sha}
	}
	tag.TaggerAt = annotated.GetTagger().GetDate().Time
	return tag, nil
}

func (c *Client) GetAnnotatedTag(ctx context.Context, owner, repo, sha string) (*remote.AnnotatedTag, error) {
	tag, _, err := c.gh.Git.GetTag(ctx, owner, repo, sha)
	if err != nil {
		return nil, wrap(err, "tag object %s of %s/%s", sha, owner, repo)
	}
	return &remote.AnnotatedTag{
		SHA:       tag.GetSHA(),
		TaggerAt:  tag.GetTagger().GetDate().Time,
		TargetSHA: tag.GetObject().GetSHA(),
	}, nil
}

func (c *Client) GetCommit(ctx context.Context, owner, repo, sha string) (*remote.Commit, error) {
	commit, _, err := c.gh.Git.GetCommit(ctx, owner, repo, sha)
	if err != nil {
		return nil, wrap(err, "commit %s of %s/%s", sha, owner, repo)
	}
	return &remote.Commit{SHA: commit.GetSHA(), CommittedAt: commit.GetCommitter().GetDate().Time}, nil
}

func (c *Client) ListPullRequests(ctx context.Context, owner, repo string, state remote.PullRequestState) ([]remote.PullRequest, error) {
	opts := &github.PullRequestListOptions{
		State:       string(state),
		ListOptions: github.ListOptions{PerPage: perPage},
	}
	var out []remote.PullRequest
	for {
		prs, resp, err := c.gh.PullRequests.List(ctx, owner, repo, opts)
		if err != nil {
			return nil, wrap(err, "pull requests of %s/%s", owner, repo)
		}
		for _, pr := range prs {
			out = append(out, toPullRequest(pr))
		}
		if resp.NextPage == 0 {
			return out, nil
		}
		opts.Page = resp.NextPage
	}
}

func toPullRequest(pr *github.PullRequest) remote.PullRequest {
	return remote.PullRequest{
		Number: int64(pr.GetNumber()),
		Title:  pr.GetTitle(),
		State:  pr.GetState(),
		Base:   toRef(pr.GetBase()),
		Head:   toRef(pr.GetHead()),
	}
}

// toRef leaves Owner empty when the branch's repository was deleted.
func toRef(b *github.PullRequestBranch) remote.PullRequestRef {
	return remote.PullRequestRef{
		Owner: b.GetRepo().GetOwner().GetLogin(),
		Repo:  b.GetRepo().GetName(),
		Ref:   b.GetRef(),
		SHA:   b.GetSHA(),
	}
}

func (c *Client) ListReleases(ctx context.Context, owner, repo string) ([]remote.Release, error) {
	opts := &github.ListOptions{PerPage: perPage}
	var out []remote.Release
	for {
		releases, resp, err := c.gh.Repositories.ListReleases(ctx, owner, repo, opts)
		if err != nil {
			return nil, wrap(err, "releases of %s/%s", owner, repo)
		}
		for _, r := range releases {
			out = append(out, remote.Release{
				ID:         r.GetID(),
				TagName:    r.GetTagName(),
				Name:       r.GetName(),
				Draft:      r.GetDraft(),
				Prerelease: r.GetPrerelease(),
			})
		}
		if resp.NextPage == 0 {
			return out, nil
		}
		opts.Page = resp.NextPage
	}
}

func (c *Client) ListCollaborators(ctx context.Context, owner, repo string) ([]string, error) {
	opts := &github.ListCollaboratorsOptions{ListOptions: github.ListOptions{PerPage: perPage}}
	var out []string
	for {
		users, resp, err := c.gh.Repositories.ListCollaborators(ctx, owner, repo, opts)
		if err != nil {
			return nil, wrap(err, "collaborators of %s/%s", owner, repo)
		}
		for _, u := range users {
			out = append(out, u.GetLogin())
		}
		if resp.NextPage == 0 {
			return out, nil
		}
		opts.Page = resp.NextPage
	}
}

// wrap maps API status codes onto the remote error sentinels.
func wrap(err error, format string, args ...any) error {
	what := fmt.Sprintf(format, args...)
	switch {
	case isStatus(err, http.StatusNotFound):
		return fmt.Errorf("%w: %s", remote.ErrNotFound, what)
	case isStatus(err, http.StatusForbidden), isStatus(err, http.StatusUnauthorized):
		return fmt.Errorf("%w: %s: %v", remote.ErrForbidden, what, err)
	}
	return fmt.Errorf("failed to fetch %s: %w", what, err)
}

func isStatus(err error, code int) bool {
	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return errResp.Response.StatusCode == code
	}
	return false
}
