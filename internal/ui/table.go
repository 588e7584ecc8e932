package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Columns of the head table.
const (
	colKind = iota
	colHead
	colHash
	colDetail
)

// NewHeadTable creates the table used for head listings. Rows alternate
// in shade and the hash column is dimmed. On terminals narrower than the
// default width the columns shrink to fit.
func NewHeadTable() *table.Table {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(TableBorderStyle).
		BorderRow(false).
		BorderColumn(true).
		Headers("KIND", "HEAD", "HASH", "DETAIL").
		StyleFunc(headTableStyle)
	if w := GetTerminalWidth(); w < Display.DefaultTerminalWidth {
		t = t.Width(w)
	}
	return t
}

func headTableStyle(row, col int) lipgloss.Style {
	if row == table.HeaderRow {
		return TableHeaderStyle
	}
	style := TableCellStyle
	if row%2 == 1 {
		style = TableRowAltStyle
	}
	if col == colHash {
		return style.Foreground(ColorTextMuted)
	}
	return style
}

// headRow returns the cells of one head table row in column order.
func headRow(kind, head, hash, detail string) []string {
	row := make([]string, colDetail+1)
	row[colKind], row[colHead], row[colHash], row[colDetail] = kind, head, hash, detail
	return row
}
