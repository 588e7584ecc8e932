package discovery

import (
	"context"

	"github.com/bjulian5/scmsource/internal/model"
)

// Criteria decides whether a candidate is of interest to the caller.
type Criteria interface {
	Matches(ctx context.Context, head model.Head, rev model.Revision) (bool, error)
}

// CriteriaFunc adapts a function to Criteria.
type CriteriaFunc func(ctx context.Context, head model.Head, rev model.Revision) (bool, error)

func (f CriteriaFunc) Matches(ctx context.Context, head model.Head, rev model.Revision) (bool, error) {
	return f(ctx, head, rev)
}

// All matches every candidate.
var All Criteria = CriteriaFunc(func(context.Context, model.Head, model.Revision) (bool, error) {
	return true, nil
})

// Visitor receives matching candidates. Record returns true when the
// caller has what it needs and discovery should stop.
type Visitor interface {
	Record(head model.Head, rev model.Revision) bool
}

// VisitorFunc adapts a function to Visitor.
type VisitorFunc func(head model.Head, rev model.Revision) bool

func (f VisitorFunc) Record(head model.Head, rev model.Revision) bool {
	return f(head, rev)
}

// Collector records every candidate and never stops discovery.
type Collector struct {
	revisions map[model.HeadKey]model.Revision
}

func NewCollector() *Collector {
	return &Collector{revisions: map[model.HeadKey]model.Revision{}}
}

func (c *Collector) Record(head model.Head, rev model.Revision) bool {
	c.revisions[head.Key()] = rev
	return false
}

// Revisions returns the recorded revisions keyed by head.
func (c *Collector) Revisions() map[model.HeadKey]model.Revision {
	return c.revisions
}

// Sorted returns the recorded revisions ordered by kind then name.
func (c *Collector) Sorted() []model.Revision {
	keys := make([]model.HeadKey, 0, len(c.revisions))
	for k := range c.revisions {
		keys = append(keys, k)
	}
	model.SortKeys(keys)
	out := make([]model.Revision, 0, len(keys))
	for _, k := range keys {
		out = append(out, c.revisions[k])
	}
	return out
}

// Delta returns the recorded revisions as a delta of created heads.
func (c *Collector) Delta() model.Delta {
	d := model.Delta{}
	for _, rev := range c.revisions {
		d.Put(model.Created, rev)
	}
	return d
}

// Named looks for the single head with a given name and stops discovery
// once it is found.
type Named struct {
	name  string
	found model.Revision
}

func NewNamed(name string) *Named {
	return &Named{name: name}
}

func (n *Named) Record(head model.Head, rev model.Revision) bool {
	if head.Name() != n.name {
		return false
	}
	n.found = rev
	return true
}

// Criteria matches only heads with the wanted name, so non-matching
// candidates never reach the visitor.
func (n *Named) Criteria() Criteria {
	return CriteriaFunc(func(_ context.Context, head model.Head, _ model.Revision) (bool, error) {
		return head.Name() == n.name, nil
	})
}

// Revision returns the revision found, or nil.
func (n *Named) Revision() model.Revision {
	return n.found
}
