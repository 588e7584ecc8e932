package trust

import (
	"context"
	"errors"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/bjulian5/scmsource/internal/model"
)

// ErrCollaboratorsUnavailable is returned when collaborator-based trust is
// configured to fail loudly and the collaborator list cannot be read.
var ErrCollaboratorsUnavailable = errors.New("collaborator list unavailable")

// Request supplies the inputs trust decisions need.
type Request interface {
	// Collaborators returns the lower-cased login names of the repository's
	// collaborators.
	Collaborators(ctx context.Context) (sets.Set[string], error)
}

// Authority decides whether a head's content may be built with the source
// repository's privileges.
type Authority interface {
	Name() string
	IsTrusted(ctx context.Context, req Request, head model.Head) (bool, error)
}

var (
	// Nobody trusts no fork.
	Nobody Authority = nobody{}
	// Contributors trusts forks owned by a repository collaborator.
	Contributors Authority = contributors{}
	// Everyone trusts every head.
	Everyone Authority = everyone{}
	// DefaultOrigin trusts content that lives in the source repository.
	DefaultOrigin Authority = defaultOrigin{}
)

// ParseAuthority maps a configuration name to a fork authority.
func ParseAuthority(name string) (Authority, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "nobody":
		return Nobody, nil
	case "contributors", "":
		return Contributors, nil
	case "everyone":
		return Everyone, nil
	}
	return nil, errors.New("unknown trust authority " + name)
}

type nobody struct{}

func (nobody) Name() string { return "nobody" }

func (nobody) IsTrusted(context.Context, Request, model.Head) (bool, error) {
	return false, nil
}

type contributors struct{}

func (contributors) Name() string { return "contributors" }

func (contributors) IsTrusted(ctx context.Context, req Request, head model.Head) (bool, error) {
	pr, ok := head.(model.PullRequestHead)
	if !ok || !pr.IsFork() {
		return false, nil
	}
	names, err := req.Collaborators(ctx)
	if err != nil {
		return false, err
	}
	return names.Has(strings.ToLower(pr.OriginOwner)), nil
}

type everyone struct{}

func (everyone) Name() string { return "everyone" }

func (everyone) IsTrusted(context.Context, Request, model.Head) (bool, error) {
	return true, nil
}

type defaultOrigin struct{}

func (defaultOrigin) Name() string { return "default-origin" }

func (defaultOrigin) IsTrusted(context.Context, Request, model.Head) (bool, error) {
	return true, nil
}

// StaticRequest is a Request with a fixed collaborator list, for callers
// that resolve trust outside a discovery session.
type StaticRequest struct {
	names sets.Set[string]
}

func NewStaticRequest(collaborators ...string) *StaticRequest {
	names := sets.New[string]()
	for _, c := range collaborators {
		names.Insert(strings.ToLower(c))
	}
	return &StaticRequest{names: names}
}

func (r *StaticRequest) Collaborators(context.Context) (sets.Set[string], error) {
	return r.names, nil
}
