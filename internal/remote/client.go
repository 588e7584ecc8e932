package remote

import (
	"context"
	"time"
)

// Client is the remote repository API consumed by discovery and event
// translation. Implementations own transport, authentication, retries and
// timeouts.
//
// Lookups that find nothing return an error wrapping ErrNotFound; listings
// the caller is not permitted to read return an error wrapping ErrForbidden.
type Client interface {
	GetRepository(ctx context.Context, owner, repo string) (*Repository, error)
	// ServerVersion returns the server's version string, or "" when the
	// server does not report one.
	ServerVersion(ctx context.Context) (string, error)
	ListBranches(ctx context.Context, owner, repo string) ([]Branch, error)
	// ListTags returns one page of tags. page starts at 1; a next page of 0
	// means there are no more pages.
	ListTags(ctx context.Context, owner, repo string, page int) (tags []Tag, next int, err error)
	GetTag(ctx context.Context, owner, repo, name string) (*Tag, error)
	GetAnnotatedTag(ctx context.Context, owner, repo, sha string) (*AnnotatedTag, error)
	GetCommit(ctx context.Context, owner, repo, sha string) (*Commit, error)
	ListPullRequests(ctx context.Context, owner, repo string, state PullRequestState) ([]PullRequest, error)
	ListReleases(ctx context.Context, owner, repo string) ([]Release, error)
	ListCollaborators(ctx context.Context, owner, repo string) ([]string, error)
}

// Repository is repository metadata.
type Repository struct {
	Owner         string
	Name          string
	HTMLURL       string
	DefaultBranch string
	Mirror        bool
	Permissions   Permissions
}

// Permissions are the caller's permissions on a repository.
type Permissions struct {
	Admin bool
	Push  bool
	Pull  bool
}

// Branch is a branch and the commit it points at.
type Branch struct {
	Name string
	SHA  string
}

// Tag is a tag reference. ID is the tag object id: it differs from
// Commit.SHA only for annotated tags. Commit is nil when the remote
// returned a tag without a commit. TaggerAt is set when the client already
// read the tag object of an annotated tag.
type Tag struct {
	Name     string
	ID       string
	Commit   *CommitRef
	TaggerAt time.Time
}

// CommitRef points at a commit.
type CommitRef struct {
	SHA string
}

// IsAnnotated reports whether t refers to a separate tag object.
func (t Tag) IsAnnotated() bool {
	return t.ID != "" && t.Commit != nil && t.ID != t.Commit.SHA
}

// AnnotatedTag is a tag object.
type AnnotatedTag struct {
	SHA       string
	TaggerAt  time.Time
	TargetSHA string
}

// Commit is a commit object.
type Commit struct {
	SHA         string
	CommittedAt time.Time
}

// PullRequestState filters pull request listings.
type PullRequestState string

const (
	PullRequestOpen   PullRequestState = "open"
	PullRequestClosed PullRequestState = "closed"
	PullRequestAll    PullRequestState = "all"
)

// PullRequest is a pull request with both of its sides.
type PullRequest struct {
	Number int64
	Title  string
	State  string
	Base   PullRequestRef
	Head   PullRequestRef
}

// PullRequestRef is one side of a pull request. Owner is empty when the
// originating repository is gone.
type PullRequestRef struct {
	Owner string
	Repo  string
	Ref   string
	SHA   string
}

// Release is a release attached to a tag.
type Release struct {
	ID         int64
	TagName    string
	Name       string
	Draft      bool
	Prerelease bool
}
