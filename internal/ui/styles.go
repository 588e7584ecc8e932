package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bjulian5/scmsource/internal/model"
)

// Color palette
var (
	ColorPrimary = lipgloss.Color("#7C3AED") // Purple

	ColorSuccess = lipgloss.Color("#10B981") // Green
	ColorWarning = lipgloss.Color("#F59E0B") // Amber
	ColorError   = lipgloss.Color("#EF4444") // Red
	ColorInfo    = lipgloss.Color("#3B82F6") // Blue

	// Head kind colors
	ColorBranch      = lipgloss.Color("#10B981") // Green
	ColorPullRequest = lipgloss.Color("#6366F1") // Indigo
	ColorTag         = lipgloss.Color("#F59E0B") // Amber
	ColorRelease     = lipgloss.Color("#8B5CF6") // Purple

	// Change colors
	ColorCreated = lipgloss.Color("#10B981") // Green
	ColorUpdated = lipgloss.Color("#3B82F6") // Blue
	ColorRemoved = lipgloss.Color("#EF4444") // Red

	ColorTextMuted  = lipgloss.Color("#9CA3AF") // Gray
	ColorTextBright = lipgloss.Color("#FFFFFF") // White
	ColorBgMuted    = lipgloss.Color("#111827") // Darker gray
	ColorBorder     = lipgloss.Color("#374151") // Medium gray
)

var BorderRounded = lipgloss.RoundedBorder()

// Base styles
var (
	BoxStyle = lipgloss.NewStyle().
			Border(BorderRounded).
			BorderForeground(ColorBorder).
			Padding(0, 1)
)

// Text styles
var (
	DimStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	HighlightStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)
)

// Message styles
var (
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(ColorInfo)
)

// Table styles
var (
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorTextBright).
				Padding(0, 1)

	TableCellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	TableRowAltStyle = lipgloss.NewStyle().
				Background(ColorBgMuted).
				Padding(0, 1)

	TableBorderStyle = lipgloss.NewStyle().
				Foreground(ColorBorder)
)

// Tree styles
var (
	TreeEnumeratorStyle = lipgloss.NewStyle().
				Foreground(ColorBorder)
)

// KindStyle returns the style heads of kind are rendered with.
func KindStyle(kind model.HeadKind) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(KindColor(kind)).Bold(true)
}

// KindColor returns the color of a head kind.
func KindColor(kind model.HeadKind) lipgloss.Color {
	switch kind {
	case model.KindBranch:
		return ColorBranch
	case model.KindPullRequest:
		return ColorPullRequest
	case model.KindTag:
		return ColorTag
	case model.KindRelease:
		return ColorRelease
	default:
		return ColorTextMuted
	}
}

// ChangeColor returns the color of a change type.
func ChangeColor(t model.ChangeType) lipgloss.Color {
	switch t {
	case model.Created:
		return ColorCreated
	case model.Updated:
		return ColorUpdated
	case model.Removed:
		return ColorRemoved
	default:
		return ColorTextMuted
	}
}
