package model

import (
	"fmt"
	"strconv"
	"strings"
)

// HeadKind discriminates the variants of Head.
type HeadKind int

const (
	KindBranch HeadKind = iota
	KindPullRequest
	KindTag
	KindRelease
)

func (k HeadKind) String() string {
	switch k {
	case KindBranch:
		return "branch"
	case KindPullRequest:
		return "pull-request"
	case KindTag:
		return "tag"
	case KindRelease:
		return "release"
	default:
		return fmt.Sprintf("HeadKind(%d)", int(k))
	}
}

// ParseHeadKind is the inverse of HeadKind.String.
func ParseHeadKind(s string) (HeadKind, error) {
	switch s {
	case "branch":
		return KindBranch, nil
	case "pull-request":
		return KindPullRequest, nil
	case "tag":
		return KindTag, nil
	case "release":
		return KindRelease, nil
	}
	return 0, fmt.Errorf("unknown head kind %q", s)
}

// Head is a named, buildable reference in a remote repository.
//
// The set of implementations is closed: BranchHead, TagHead, PullRequestHead
// and ReleaseHead. Consumers switch on the concrete type.
type Head interface {
	// Name is the display name, unique within one discovery pass.
	Name() string
	Kind() HeadKind
	Key() HeadKey

	isHead()
}

// HeadKey identifies a head across discovery passes and events.
// Fields such as a tag timestamp are attributes, not identity.
type HeadKey struct {
	Kind HeadKind
	Name string
}

func (k HeadKey) String() string {
	return k.Kind.String() + ":" + k.Name
}

// BranchHead is a branch of the source repository.
type BranchHead struct {
	BranchName string
}

func (h BranchHead) Name() string   { return h.BranchName }
func (h BranchHead) Kind() HeadKind { return KindBranch }
func (h BranchHead) Key() HeadKey   { return HeadKey{Kind: KindBranch, Name: h.BranchName} }
func (BranchHead) isHead()          {}

// TagHead is a tag of the source repository.
type TagHead struct {
	TagName string
	// Timestamp is in milliseconds since the epoch, 0 when unknown.
	Timestamp int64
}

func (h TagHead) Name() string   { return h.TagName }
func (h TagHead) Kind() HeadKind { return KindTag }
func (h TagHead) Key() HeadKey   { return HeadKey{Kind: KindTag, Name: h.TagName} }
func (TagHead) isHead()          {}

// PullRequestHead is one buildable checkout of a pull request.
//
// A pull request discovered with more than one checkout strategy yields one
// PullRequestHead per strategy, each with its own display name.
type PullRequestHead struct {
	DisplayName string
	ID          int64
	Target      BranchHead
	Strategy    CheckoutStrategy
	Origin      Origin

	OriginOwner      string
	OriginRepo       string
	OriginBranchName string
}

func (h PullRequestHead) Name() string   { return h.DisplayName }
func (h PullRequestHead) Kind() HeadKind { return KindPullRequest }
func (h PullRequestHead) Key() HeadKey   { return HeadKey{Kind: KindPullRequest, Name: h.DisplayName} }
func (PullRequestHead) isHead()          {}

// IsFork reports whether the pull request originates outside the source repository.
func (h PullRequestHead) IsFork() bool {
	return h.Origin.IsFork()
}

// ReleaseHead is a published release, keyed by its tag and numeric id.
type ReleaseHead struct {
	TagName   string
	ReleaseID int64
}

func (h ReleaseHead) Name() string   { return ReleaseName(h.TagName) }
func (h ReleaseHead) Kind() HeadKind { return KindRelease }
func (h ReleaseHead) Key() HeadKey   { return HeadKey{Kind: KindRelease, Name: h.Name()} }
func (ReleaseHead) isHead()          {}

// ReleaseName returns the display name of the release built from tagName.
func ReleaseName(tagName string) string {
	return "release-" + tagName
}

// PullRequestName returns the display name for pull request id. When the
// pull request is discovered with several strategies the strategy name is
// appended so every head is unique.
func PullRequestName(id int64, strategy CheckoutStrategy, strategyCount int) string {
	name := "PR-" + strconv.FormatInt(id, 10)
	if strategyCount > 1 {
		name += "-" + strategy.String()
	}
	return name
}

// CheckoutStrategy selects what is built for a pull request.
type CheckoutStrategy int

const (
	// StrategyMerge builds the pull request merged into its target branch.
	StrategyMerge CheckoutStrategy = iota
	// StrategyHead builds the pull request branch alone.
	StrategyHead
)

func (s CheckoutStrategy) String() string {
	switch s {
	case StrategyMerge:
		return "merge"
	case StrategyHead:
		return "head"
	default:
		return fmt.Sprintf("CheckoutStrategy(%d)", int(s))
	}
}

// ParseCheckoutStrategy accepts "merge" or "head", case-insensitively.
func ParseCheckoutStrategy(s string) (CheckoutStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "merge":
		return StrategyMerge, nil
	case "head":
		return StrategyHead, nil
	}
	return 0, fmt.Errorf("unknown checkout strategy %q", s)
}

// Origin classifies where a pull request's source branch lives.
// The zero value is the default origin (the source repository itself).
type Origin struct {
	fork string
}

// DefaultOrigin is the source repository.
func DefaultOrigin() Origin { return Origin{} }

// ForkOrigin is a different repository, named "owner/repo".
func ForkOrigin(ownerRepo string) Origin { return Origin{fork: ownerRepo} }

func (o Origin) IsFork() bool { return o.fork != "" }

func (o Origin) String() string {
	if o.fork == "" {
		return "default"
	}
	return o.fork
}

// ClassifyOrigin returns the default origin when (originOwner, originRepo)
// names the same repository as (repoOwner, repository), compared
// case-insensitively, and a fork origin otherwise.
func ClassifyOrigin(repoOwner, repository, originOwner, originRepo string) Origin {
	if strings.EqualFold(repoOwner, originOwner) && strings.EqualFold(repository, originRepo) {
		return DefaultOrigin()
	}
	return ForkOrigin(originOwner + "/" + originRepo)
}
