package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bjulian5/scmsource/internal/model"
)

// Change icons
const (
	IconCreated = "+"
	IconUpdated = "~"
	IconRemoved = "-"
)

// Status renders one change type.
type Status struct {
	Icon  string
	Label string
	Style lipgloss.Style
}

// GetStatus returns the Status of a change type.
func GetStatus(t model.ChangeType) Status {
	style := lipgloss.NewStyle().Foreground(ChangeColor(t)).Bold(true)
	switch t {
	case model.Created:
		return Status{Icon: IconCreated, Label: "created", Style: style}
	case model.Updated:
		return Status{Icon: IconUpdated, Label: "updated", Style: style}
	case model.Removed:
		return Status{Icon: IconRemoved, Label: "removed", Style: style}
	default:
		return Status{Icon: "?", Label: t.String(), Style: style}
	}
}

// Render returns the full status with icon and label (e.g., "+ created")
func (s Status) Render() string {
	return s.Style.Render(s.Icon + " " + s.Label)
}

// RenderCompact returns just the styled icon
func (s Status) RenderCompact() string {
	return s.Style.Render(s.Icon)
}

// RenderWithCount returns status with count (e.g., "+ 3 created")
func (s Status) RenderWithCount(count int) string {
	if count == 0 {
		return ""
	}
	return s.Style.Render(fmt.Sprintf("%s %d %s", s.Icon, count, s.Label))
}

// CountChanges counts the entries of d by change type.
func CountChanges(d model.Delta) (created, updated, removed int) {
	for _, c := range d {
		switch c.Type {
		case model.Created:
			created++
		case model.Updated:
			updated++
		case model.Removed:
			removed++
		}
	}
	return
}

// FormatDeltaSummary formats the change counts of d
// e.g., "+ 2 created  ~ 1 updated"
func FormatDeltaSummary(d model.Delta) string {
	created, updated, removed := CountChanges(d)
	var parts []string
	for _, p := range []struct {
		t     model.ChangeType
		count int
	}{{model.Created, created}, {model.Updated, updated}, {model.Removed, removed}} {
		if p.count > 0 {
			parts = append(parts, GetStatus(p.t).RenderWithCount(p.count))
		}
	}
	if len(parts) == 0 {
		return Dim("no changes")
	}
	return strings.Join(parts, "  ")
}
