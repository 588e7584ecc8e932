package ui

import (
	"errors"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/ktr0731/go-fuzzyfinder"

	"github.com/bjulian5/scmsource/internal/model"
)

func init() {
	// Detect the terminal before the fuzzy finder takes it over, otherwise
	// ANSI queries leak into the finder input.
	_ = lipgloss.NewStyle().Render("")
	_ = lipgloss.HasDarkBackground()
}

// SelectHead presents a fuzzy finder over revs. It returns nil when the
// user cancels.
func SelectHead(revs []model.Revision) (model.Revision, error) {
	os.Stdout.Sync()
	os.Stderr.Sync()

	idx, err := fuzzyfinder.Find(
		revs,
		func(i int) string {
			return FormatHeadFinderLine(revs[i])
		},
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return ""
			}
			return FormatHeadPreview(revs[i])
		}),
	)
	if errors.Is(err, fuzzyfinder.ErrAbort) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return revs[idx], nil
}
