package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bjulian5/scmsource/internal/remote"
)

var (
	// ErrUnknownKind is returned for an event kind that is not routed.
	ErrUnknownKind = errors.New("unknown event kind")
	// ErrMalformedPayload is returned when a payload cannot be decoded or
	// lacks the fields its kind requires.
	ErrMalformedPayload = errors.New("malformed event payload")
)

type userPayload struct {
	Login    string `json:"login"`
	Username string `json:"username"`
}

func (u *userPayload) name() string {
	if u == nil {
		return ""
	}
	if u.Login != "" {
		return u.Login
	}
	return u.Username
}

type repositoryPayload struct {
	Name     string       `json:"name"`
	FullName string       `json:"full_name"`
	HTMLURL  string       `json:"html_url"`
	Owner    *userPayload `json:"owner"`
}

func (r *repositoryPayload) ref() (RepoRef, error) {
	if r == nil {
		return RepoRef{}, fmt.Errorf("%w: missing repository", ErrMalformedPayload)
	}
	ref := RepoRef{Owner: r.Owner.name(), Name: r.Name, HTMLURL: r.HTMLURL}
	if ref.Owner == "" && r.FullName != "" {
		if owner, _, ok := strings.Cut(r.FullName, "/"); ok {
			ref.Owner = owner
		}
	}
	if ref.Owner == "" || ref.Name == "" {
		return RepoRef{}, fmt.Errorf("%w: repository without owner or name", ErrMalformedPayload)
	}
	return ref, nil
}

type refPayload struct {
	Ref        string             `json:"ref"`
	RefType    string             `json:"ref_type"`
	SHA        string             `json:"sha"`
	Before     string             `json:"before"`
	After      string             `json:"after"`
	Repository *repositoryPayload `json:"repository"`
}

type pullRequestSidePayload struct {
	Ref  string             `json:"ref"`
	SHA  string             `json:"sha"`
	Repo *repositoryPayload `json:"repo"`
}

func (s pullRequestSidePayload) ref() remote.PullRequestRef {
	out := remote.PullRequestRef{Ref: s.Ref, SHA: s.SHA}
	if s.Repo != nil {
		out.Owner = s.Repo.Owner.name()
		out.Repo = s.Repo.Name
	}
	return out
}

type pullRequestPayload struct {
	Action      string `json:"action"`
	Number      int64  `json:"number"`
	PullRequest *struct {
		Number int64                  `json:"number"`
		Title  string                 `json:"title"`
		State  string                 `json:"state"`
		Base   pullRequestSidePayload `json:"base"`
		Head   pullRequestSidePayload `json:"head"`
	} `json:"pull_request"`
	Repository *repositoryPayload `json:"repository"`
}

type releasePayload struct {
	Action  string `json:"action"`
	Release *struct {
		ID         int64  `json:"id"`
		TagName    string `json:"tag_name"`
		Name       string `json:"name"`
		Draft      bool   `json:"draft"`
		Prerelease bool   `json:"prerelease"`
	} `json:"release"`
	Repository *repositoryPayload `json:"repository"`
}

type repositoryEventPayload struct {
	Action     string             `json:"action"`
	Repository *repositoryPayload `json:"repository"`
}

// Decode parses a webhook payload of the given kind.
func Decode(kind Kind, body []byte) (Event, error) {
	switch kind {
	case KindCreate, KindDelete, KindPush:
		return decodeRef(kind, body)
	case KindPullRequest:
		return decodePullRequest(body)
	case KindRelease:
		return decodeRelease(body)
	case KindRepository:
		return decodeRepository(body)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

func unmarshal(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}

func decodeRef(kind Kind, body []byte) (Event, error) {
	var p refPayload
	if err := unmarshal(body, &p); err != nil {
		return nil, err
	}
	repo, err := p.Repository.ref()
	if err != nil {
		return nil, err
	}
	if p.Ref == "" {
		return nil, fmt.Errorf("%w: %s event without ref", ErrMalformedPayload, kind)
	}

	switch kind {
	case KindPush:
		return PushEvent{Repository: repo, Ref: p.Ref, Before: p.Before, After: p.After}, nil
	case KindCreate:
		return CreateEvent{Repository: repo, Ref: p.Ref, RefType: RefType(p.RefType), SHA: p.SHA}, nil
	default:
		return DeleteEvent{Repository: repo, Ref: p.Ref, RefType: RefType(p.RefType)}, nil
	}
}

func decodePullRequest(body []byte) (Event, error) {
	var p pullRequestPayload
	if err := unmarshal(body, &p); err != nil {
		return nil, err
	}
	repo, err := p.Repository.ref()
	if err != nil {
		return nil, err
	}
	if p.PullRequest == nil {
		return nil, fmt.Errorf("%w: pull_request event without pull request", ErrMalformedPayload)
	}
	number := p.PullRequest.Number
	if number == 0 {
		number = p.Number
	}
	return PullRequestEvent{
		Repository: repo,
		Action:     PullRequestAction(p.Action),
		PullRequest: remote.PullRequest{
			Number: number,
			Title:  p.PullRequest.Title,
			State:  p.PullRequest.State,
			Base:   p.PullRequest.Base.ref(),
			Head:   p.PullRequest.Head.ref(),
		},
	}, nil
}

func decodeRelease(body []byte) (Event, error) {
	var p releasePayload
	if err := unmarshal(body, &p); err != nil {
		return nil, err
	}
	repo, err := p.Repository.ref()
	if err != nil {
		return nil, err
	}
	if p.Release == nil {
		return nil, fmt.Errorf("%w: release event without release", ErrMalformedPayload)
	}
	return ReleaseEvent{
		Repository: repo,
		Action:     ReleaseAction(p.Action),
		Release: remote.Release{
			ID:         p.Release.ID,
			TagName:    p.Release.TagName,
			Name:       p.Release.Name,
			Draft:      p.Release.Draft,
			Prerelease: p.Release.Prerelease,
		},
	}, nil
}

func decodeRepository(body []byte) (Event, error) {
	var p repositoryEventPayload
	if err := unmarshal(body, &p); err != nil {
		return nil, err
	}
	repo, err := p.Repository.ref()
	if err != nil {
		return nil, err
	}
	return RepositoryEvent{Repository: repo, Action: RepositoryAction(p.Action)}, nil
}
