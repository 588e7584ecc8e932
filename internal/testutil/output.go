package testutil

import (
	"bytes"
	"testing"

	"github.com/bjulian5/scmsource/internal/ui"
)

// CaptureOutput redirects ui output to a buffer for the rest of the test.
func CaptureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	out, errOut := ui.Out, ui.ErrOut
	ui.Out, ui.ErrOut = &buf, &buf
	t.Cleanup(func() {
		ui.Out, ui.ErrOut = out, errOut
	})
	return &buf
}
