package ui

import (
	"fmt"
	"io"
	"os"
)

// Output streams. Commands print through these so tests can capture them.
var (
	Out    io.Writer = os.Stdout
	ErrOut io.Writer = os.Stderr
)

// Success prints a success message with a checkmark icon
func Success(msg string) {
	fmt.Fprintln(Out, SuccessStyle.Render("✓ "+msg))
}

func Successf(format string, args ...any) {
	Success(fmt.Sprintf(format, args...))
}

// Error prints err to ErrOut with an X icon.
func Error(err error) {
	fmt.Fprintln(ErrOut, ErrorStyle.Render("✗ "+err.Error()))
}

// Info prints an info message with an info icon
func Info(msg string) {
	fmt.Fprintln(Out, InfoStyle.Render("ℹ "+msg))
}

func Infof(format string, args ...any) {
	Info(fmt.Sprintf(format, args...))
}

// Print prints a plain message (no styling)
func Print(msg string) {
	fmt.Fprintln(Out, msg)
}

func Dim(text string) string {
	return DimStyle.Render(text)
}
