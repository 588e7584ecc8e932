package model

// Revision is an immutable content pointer bound to exactly one Head.
//
// Implementations: BranchRevision, TagRevision, PullRequestRevision and
// ReleaseRevision.
type Revision interface {
	Head() Head

	isRevision()
}

// BranchRevision is the commit a branch points at.
type BranchRevision struct {
	Branch BranchHead
	Hash   string
}

func NewBranchRevision(name, hash string) BranchRevision {
	return BranchRevision{Branch: BranchHead{BranchName: name}, Hash: hash}
}

func (r BranchRevision) Head() Head { return r.Branch }
func (BranchRevision) isRevision()  {}

// TagRevision is the commit a tag points at.
type TagRevision struct {
	Tag  TagHead
	Hash string
}

func (r TagRevision) Head() Head { return r.Tag }
func (TagRevision) isRevision()  {}

// PullRequestRevision carries both sides of a pull request. Only one side
// is checked out; trust resolution decides which.
type PullRequestRevision struct {
	PullRequest PullRequestHead
	Target      BranchRevision
	Origin      BranchRevision
}

func (r PullRequestRevision) Head() Head { return r.PullRequest }
func (PullRequestRevision) isRevision()  {}

// ReleaseRevision is the commit a release's tag points at.
type ReleaseRevision struct {
	Release ReleaseHead
	Hash    string
}

func (r ReleaseRevision) Head() Head { return r.Release }
func (ReleaseRevision) isRevision()  {}

// Hash returns the primary content hash of rev: the origin side for pull
// requests.
func Hash(rev Revision) string {
	switch r := rev.(type) {
	case BranchRevision:
		return r.Hash
	case TagRevision:
		return r.Hash
	case PullRequestRevision:
		return r.Origin.Hash
	case ReleaseRevision:
		return r.Hash
	}
	return ""
}

// Equivalent reports whether a and b name the same head and point at the
// same content. Head attributes that are not part of the HeadKey, such as a
// tag timestamp, are ignored.
func Equivalent(a, b Revision) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Head().Key() != b.Head().Key() {
		return false
	}
	switch ra := a.(type) {
	case BranchRevision:
		rb, ok := b.(BranchRevision)
		return ok && ra.Hash == rb.Hash
	case TagRevision:
		rb, ok := b.(TagRevision)
		return ok && ra.Hash == rb.Hash
	case PullRequestRevision:
		rb, ok := b.(PullRequestRevision)
		return ok && ra.PullRequest == rb.PullRequest &&
			ra.Target == rb.Target && ra.Origin == rb.Origin
	case ReleaseRevision:
		rb, ok := b.(ReleaseRevision)
		return ok && ra.Hash == rb.Hash && ra.Release == rb.Release
	}
	return false
}
