package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss/tree"

	"github.com/bjulian5/scmsource/internal/model"
)

// RenderHeadTree renders revisions grouped by kind.
// Example output:
//
//	branch (2)
//	├─ feature 1a2b3c4
//	╰─ main 5d6e7f8
//	pull-request (1)
//	╰─ PR-7 9a8b7c6 alice/widgets:fix → main (merge)
func RenderHeadTree(revs []model.Revision) string {
	var groups []*tree.Tree
	var current *tree.Tree
	var kind model.HeadKind
	count := 0

	flush := func() {
		if current != nil {
			current.Root(KindStyle(kind).Render(fmt.Sprintf("%s (%d)", kind, count)))
			groups = append(groups, current)
		}
	}
	for _, rev := range revs {
		head := rev.Head()
		if current == nil || head.Kind() != kind {
			flush()
			kind = head.Kind()
			count = 0
			current = tree.New().
				Enumerator(roundedEnumerator).
				EnumeratorStyle(TreeEnumeratorStyle)
		}
		count++
		label := fmt.Sprintf("%s %s", head.Name(), Dim(ShortHash(model.Hash(rev))))
		if d := Detail(rev); d != "" {
			label += " " + d
		}
		current.Child(label)
	}
	flush()

	out := ""
	for i, g := range groups {
		if i > 0 {
			out += "\n"
		}
		out += g.String()
	}
	return out
}

func roundedEnumerator(children tree.Children, i int) string {
	if children.Length() == 0 {
		return ""
	}
	if i == children.Length()-1 {
		return "╰─ "
	}
	return "├─ "
}
