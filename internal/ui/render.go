package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/bjulian5/scmsource/internal/model"
	"github.com/bjulian5/scmsource/internal/trust"
)

// RenderHeads renders revisions in the given view. Revisions are expected
// in kind then name order.
func RenderHeads(revs []model.Revision, view ViewMode) string {
	if len(revs) == 0 {
		return RenderNoHeadsMessage()
	}
	switch view {
	case ViewTree:
		return RenderHeadTree(revs)
	case ViewPlain:
		return RenderHeadsPlain(revs)
	default:
		return RenderHeadTable(revs)
	}
}

// RenderHeadTable renders revisions as a bordered table.
func RenderHeadTable(revs []model.Revision) string {
	t := NewHeadTable()
	for _, rev := range revs {
		head := rev.Head()
		t.Row(headRow(
			KindStyle(head.Kind()).Render(head.Kind().String()),
			Truncate(head.Name(), Display.MaxNameLength),
			ShortHash(model.Hash(rev)),
			Truncate(Detail(rev), Display.MaxTitleLength),
		)...)
	}
	return t.String()
}

// RenderHeadsPlain renders one tab separated line per revision with the
// full hash.
func RenderHeadsPlain(revs []model.Revision) string {
	var b strings.Builder
	for _, rev := range revs {
		head := rev.Head()
		fmt.Fprintf(&b, "%s\t%s\t%s\n", head.Kind(), head.Name(), model.Hash(rev))
	}
	return b.String()
}

// RenderDelta renders the changes of d, one per line, in kind then name
// order.
func RenderDelta(d model.Delta) string {
	if len(d) == 0 {
		return Dim("No head changes")
	}
	var b strings.Builder
	for _, k := range d.Keys() {
		c := d[k]
		line := fmt.Sprintf("%s %s %s", GetStatus(c.Type).RenderCompact(), KindStyle(k.Kind).Render(k.Kind.String()), k.Name)
		if !c.IsTombstone() {
			line += " " + Dim(ShortHash(model.Hash(c.Revision)))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(FormatDeltaSummary(d))
	return b.String()
}

// RenderCheckout renders what to build for a revision.
func RenderCheckout(c trust.Checkout) string {
	nominal := c.Nominal.Head()
	pairs := map[string]string{
		"Head":    nominal.Name(),
		"Kind":    nominal.Kind().String(),
		"Build":   model.Hash(c.Nominal),
		"Trusted": model.Hash(c.Trusted),
	}
	keys := []string{"Head", "Kind", "Build", "Trusted"}
	if c.Untrusted {
		pairs["Trusted"] += " " + WarningStyle.Render("(untrusted, using "+c.Trusted.Head().Name()+")")
	} else {
		pairs["Trusted"] += " " + SuccessStyle.Render("(trusted)")
	}
	return RenderBox("Checkout", RenderKeyValueList(pairs, keys))
}

// RenderTableSummary renders the footer of a stored head table.
func RenderTableSummary(src model.Source, count int, generation int64, updatedAt time.Time) string {
	heads := "heads"
	if count == 1 {
		heads = "head"
	}
	line := fmt.Sprintf("%d %s of %s at generation %d", count, heads, src, generation)
	if !updatedAt.IsZero() {
		line += ", updated " + updatedAt.UTC().Format(Display.TimeLayout)
	}
	return Dim(line)
}

// RenderNoHeadsMessage renders the message shown when nothing was found.
func RenderNoHeadsMessage() string {
	return BoxStyle.Render(Dim("No heads found.\n") + "Check the traits of the source config.")
}
