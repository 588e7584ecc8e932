package filter

import (
	"context"
	"strings"

	"github.com/bjulian5/scmsource/internal/model"
	"github.com/bjulian5/scmsource/internal/remote"
)

// Request gives filters access to the pull requests of the snapshot being
// discovered.
type Request interface {
	PullRequests(ctx context.Context) ([]remote.PullRequest, error)
}

// Filter excludes candidate heads based on other heads in the same
// snapshot.
type Filter interface {
	Name() string
	Exclude(ctx context.Context, req Request, head model.Head) (bool, error)
}

const (
	ExcludeOriginPRBranchesName = "exclude-origin-pr-branches"
	OnlyOriginPRBranchesName    = "only-origin-pr-branches"
)

var (
	// ExcludeOriginPRBranches drops a branch that is also the head of an
	// origin pull request.
	ExcludeOriginPRBranches Filter = originPRBranches{exclude: true}
	// OnlyOriginPRBranches keeps a branch only if it is also the head of an
	// origin pull request.
	OnlyOriginPRBranches Filter = originPRBranches{exclude: false}
)

type originPRBranches struct {
	exclude bool
}

func (f originPRBranches) Name() string {
	if f.exclude {
		return ExcludeOriginPRBranchesName
	}
	return OnlyOriginPRBranchesName
}

func (f originPRBranches) Exclude(ctx context.Context, req Request, head model.Head) (bool, error) {
	branch, ok := head.(model.BranchHead)
	if !ok {
		return false, nil
	}
	prs, err := req.PullRequests(ctx)
	if err != nil {
		return false, err
	}
	dup := false
	for _, pr := range prs {
		if IsOriginPullRequest(pr) && strings.EqualFold(pr.Head.Ref, branch.BranchName) {
			dup = true
			break
		}
	}
	if f.exclude {
		return dup, nil
	}
	return !dup, nil
}

// IsOriginPullRequest reports whether both sides of pr live in the same
// repository, compared case-insensitively.
func IsOriginPullRequest(pr remote.PullRequest) bool {
	return pr.Head.Owner != "" &&
		strings.EqualFold(pr.Head.Owner, pr.Base.Owner) &&
		strings.EqualFold(pr.Head.Repo, pr.Base.Repo)
}
