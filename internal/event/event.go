// Package event turns repository webhook events into head deltas.
package event

import (
	"github.com/bjulian5/scmsource/internal/remote"
)

// Kind names a webhook event kind, as sent in the event header.
type Kind string

const (
	KindCreate      Kind = "create"
	KindDelete      Kind = "delete"
	KindPush        Kind = "push"
	KindPullRequest Kind = "pull_request"
	KindRelease     Kind = "release"
	KindRepository  Kind = "repository"
)

// Kinds lists every kind a Translator routes.
var Kinds = []Kind{KindCreate, KindDelete, KindPush, KindPullRequest, KindRelease, KindRepository}

// RefType says what a create or delete event refers to.
type RefType string

const (
	RefBranch RefType = "branch"
	RefTag    RefType = "tag"
)

// ZeroSHA marks an absent side of a push.
const ZeroSHA = "0000000000000000000000000000000000000000"

// IsZeroSHA reports whether sha is empty or all zeros.
func IsZeroSHA(sha string) bool {
	for _, c := range sha {
		if c != '0' {
			return false
		}
	}
	return true
}

// RepoRef identifies the repository an event is about.
type RepoRef struct {
	Owner   string
	Name    string
	HTMLURL string
}

// Event is a decoded webhook event.
type Event interface {
	Kind() Kind
	Repo() RepoRef
}

// CreateEvent reports a new branch or tag.
type CreateEvent struct {
	Repository RepoRef
	Ref        string
	RefType    RefType
	SHA        string
}

func (e CreateEvent) Kind() Kind    { return KindCreate }
func (e CreateEvent) Repo() RepoRef { return e.Repository }

// DeleteEvent reports a deleted branch or tag.
type DeleteEvent struct {
	Repository RepoRef
	Ref        string
	RefType    RefType
}

func (e DeleteEvent) Kind() Kind    { return KindDelete }
func (e DeleteEvent) Repo() RepoRef { return e.Repository }

// PushEvent reports a ref moving from Before to After. Either side may be
// the zero SHA.
type PushEvent struct {
	Repository RepoRef
	Ref        string
	Before     string
	After      string
}

func (e PushEvent) Kind() Kind    { return KindPush }
func (e PushEvent) Repo() RepoRef { return e.Repository }

// PullRequestAction is the action of a pull request event.
type PullRequestAction string

const (
	PullRequestOpened       PullRequestAction = "opened"
	PullRequestReopened     PullRequestAction = "reopened"
	PullRequestSynchronized PullRequestAction = "synchronized"
	PullRequestEdited       PullRequestAction = "edited"
	PullRequestClosed       PullRequestAction = "closed"
)

// PullRequestEvent reports a pull request lifecycle change.
type PullRequestEvent struct {
	Repository  RepoRef
	Action      PullRequestAction
	PullRequest remote.PullRequest
}

func (e PullRequestEvent) Kind() Kind    { return KindPullRequest }
func (e PullRequestEvent) Repo() RepoRef { return e.Repository }

// ReleaseAction is the action of a release event.
type ReleaseAction string

const (
	ReleasePublished ReleaseAction = "published"
	ReleaseUpdated   ReleaseAction = "updated"
	ReleaseDeleted   ReleaseAction = "deleted"
)

// ReleaseEvent reports a release lifecycle change.
type ReleaseEvent struct {
	Repository RepoRef
	Action     ReleaseAction
	Release    remote.Release
}

func (e ReleaseEvent) Kind() Kind    { return KindRelease }
func (e ReleaseEvent) Repo() RepoRef { return e.Repository }

// RepositoryAction is the action of a repository event.
type RepositoryAction string

const (
	RepositoryCreated RepositoryAction = "created"
	RepositoryDeleted RepositoryAction = "deleted"
	RepositoryUpdated RepositoryAction = "updated"
)

// RepositoryEvent signals that the source repository itself changed. It
// never produces heads.
type RepositoryEvent struct {
	Repository RepoRef
	Action     RepositoryAction
}

func (e RepositoryEvent) Kind() Kind    { return KindRepository }
func (e RepositoryEvent) Repo() RepoRef { return e.Repository }
