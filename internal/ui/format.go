package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/bjulian5/scmsource/internal/model"
)

// Truncate truncates text to maxLen with an ellipsis if needed
// Uses lipgloss for proper ANSI-aware width handling
func Truncate(text string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if lipgloss.Width(text) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return lipgloss.NewStyle().MaxWidth(maxLen).Render(text)
	}
	return lipgloss.NewStyle().MaxWidth(maxLen-3).Render(text) + "..."
}

func Pad(text string, width int, align lipgloss.Position) string {
	return lipgloss.PlaceHorizontal(width, align, text)
}

func RenderBox(title string, content string) string {
	style := BoxStyle
	if title != "" {
		style = style.BorderForeground(ColorPrimary)
		combined := lipgloss.JoinVertical(lipgloss.Left, HighlightStyle.Render(title), "", content)
		return style.Render(combined)
	}
	return style.Render(content)
}

// RenderKeyValueList renders pairs in keys order with the keys aligned.
func RenderKeyValueList(pairs map[string]string, keys []string) string {
	maxKeyLen := 0
	for _, key := range keys {
		maxKeyLen = max(maxKeyLen, lipgloss.Width(key))
	}

	var lines []string
	for _, key := range keys {
		keyStyled := DimStyle.Render(Pad(key, maxKeyLen, lipgloss.Left) + ":")
		lines = append(lines, fmt.Sprintf("%s %s", keyStyled, pairs[key]))
	}
	return strings.Join(lines, "\n")
}

// ShortHash abbreviates a commit hash to the configured display length.
func ShortHash(hash string) string {
	if len(hash) > Display.HashDisplayLength {
		return hash[:Display.HashDisplayLength]
	}
	return hash
}

// Detail describes the parts of a revision that are not its name or hash.
// Branches have no detail.
func Detail(rev model.Revision) string {
	switch r := rev.(type) {
	case model.PullRequestRevision:
		pr := r.PullRequest
		from := pr.OriginBranchName
		if pr.IsFork() {
			from = pr.OriginOwner + "/" + pr.OriginRepo + ":" + from
		}
		return fmt.Sprintf("%s → %s (%s)", from, pr.Target.BranchName, pr.Strategy)
	case model.TagRevision:
		return FormatTimestamp(r.Tag.Timestamp)
	case model.ReleaseRevision:
		return fmt.Sprintf("tag %s, id %d", r.Release.TagName, r.Release.ReleaseID)
	}
	return ""
}

// FormatTimestamp formats milliseconds since the epoch in UTC. Zero means
// the time is unknown.
func FormatTimestamp(ms int64) string {
	if ms == 0 {
		return "unknown time"
	}
	return time.UnixMilli(ms).UTC().Format(Display.TimeLayout)
}

// FormatHeadFinderLine formats a revision for the fuzzy finder, which does
// not render ANSI codes.
func FormatHeadFinderLine(rev model.Revision) string {
	head := rev.Head()
	line := fmt.Sprintf("%-12s %s  %s", head.Kind(), Truncate(head.Name(), Display.MaxNameLength), ShortHash(model.Hash(rev)))
	if d := Detail(rev); d != "" {
		line += "  " + d
	}
	return line
}

// FormatHeadPreview formats the fuzzy finder preview of a revision.
func FormatHeadPreview(rev model.Revision) string {
	head := rev.Head()
	lines := []string{
		"Head:   " + head.Name(),
		"Kind:   " + head.Kind().String(),
		"Hash:   " + model.Hash(rev),
	}
	switch r := rev.(type) {
	case model.PullRequestRevision:
		lines = append(lines,
			fmt.Sprintf("Number: %d", r.PullRequest.ID),
			"Origin: "+r.PullRequest.Origin.String(),
			"From:   "+r.Origin.Branch.BranchName+" @ "+r.Origin.Hash,
			"Into:   "+r.Target.Branch.BranchName+" @ "+r.Target.Hash,
			"Build:  "+r.PullRequest.Strategy.String(),
		)
	case model.TagRevision:
		lines = append(lines, "Tagged: "+FormatTimestamp(r.Tag.Timestamp))
	case model.ReleaseRevision:
		lines = append(lines, "Tag:    "+r.Release.TagName, fmt.Sprintf("ID:     %d", r.Release.ReleaseID))
	}
	return strings.Join(lines, "\n")
}
