package model

import "sort"

// ChangeType describes how a head changed.
type ChangeType int

const (
	Created ChangeType = iota
	Updated
	Removed
)

func (t ChangeType) String() string {
	switch t {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Change is one entry of a Delta. A nil Revision is a tombstone: the head
// no longer exists.
type Change struct {
	Type     ChangeType
	Head     Head
	Revision Revision
}

func (c Change) IsTombstone() bool {
	return c.Revision == nil
}

// Delta is an incremental head/revision change set.
type Delta map[HeadKey]Change

// Put records rev for its head, replacing any previous entry.
func (d Delta) Put(t ChangeType, rev Revision) {
	head := rev.Head()
	d[head.Key()] = Change{Type: t, Head: head, Revision: rev}
}

// Remove records a tombstone for head.
func (d Delta) Remove(head Head) {
	d[head.Key()] = Change{Type: Removed, Head: head}
}

// Keys returns the keys of d sorted by kind then name.
func (d Delta) Keys() []HeadKey {
	keys := make([]HeadKey, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	SortKeys(keys)
	return keys
}

// SortKeys orders keys by kind then name.
func SortKeys(keys []HeadKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Kind != keys[j].Kind {
			return keys[i].Kind < keys[j].Kind
		}
		return keys[i].Name < keys[j].Name
	})
}
