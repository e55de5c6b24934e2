// Package ui provides styled terminal output for the docstage CLI using
// lipgloss.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorPrimary = lipgloss.Color("#2563eb")
	colorSuccess = lipgloss.Color("#10b981")
	colorWarning = lipgloss.Color("#f59e0b")
	colorError   = lipgloss.Color("#ef4444")
	colorMuted   = lipgloss.Color("#6b7280")
)

var (
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	SuccessStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	WarningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	ErrorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	MutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)

	InfoBox = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorPrimary).Padding(0, 1)
)

// Output handles styled terminal output for CLI commands.
type Output struct {
	writer    io.Writer
	errWriter io.Writer
}

// NewOutput creates an Output writing to stdout/stderr.
func NewOutput() *Output {
	return &Output{writer: os.Stdout, errWriter: os.Stderr}
}

// WithWriter overrides the output writer, for tests.
func (o *Output) WithWriter(w io.Writer) *Output {
	o.writer = w
	return o
}

// WithErrWriter overrides the error writer, for tests.
func (o *Output) WithErrWriter(w io.Writer) *Output {
	o.errWriter = w
	return o
}

func (o *Output) Title(msg string) {
	fmt.Fprintln(o.writer, TitleStyle.Render(msg))
}

func (o *Output) Success(msg string) {
	fmt.Fprintln(o.writer, SuccessStyle.Render("✓ "+msg))
}

func (o *Output) Warning(msg string) {
	fmt.Fprintln(o.errWriter, WarningStyle.Render("⚠ "+msg))
}

func (o *Output) Error(msg string) {
	fmt.Fprintln(o.errWriter, ErrorStyle.Render("✗ "+msg))
}

func (o *Output) Info(msg string) {
	fmt.Fprintln(o.writer, "ℹ "+msg)
}

// List prints unmatched comments and similar line items; never drops an
// entry silently, unlike Progress-style summaries.
func (o *Output) List(items []string) {
	for _, item := range items {
		fmt.Fprintln(o.writer, "  • "+item)
	}
}

func (o *Output) KeyValue(key, value string) {
	fmt.Fprintf(o.writer, "%s: %s\n", MutedStyle.Render(key), value)
}

func (o *Output) Divider() {
	fmt.Fprintln(o.writer, MutedStyle.Render(strings.Repeat("─", 40)))
}

func (o *Output) Newline() {
	fmt.Fprintln(o.writer)
}

func (o *Output) Box(msg string) {
	fmt.Fprintln(o.writer, InfoBox.Render(msg))
}

// FormatError formats an error message for display.
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	return ErrorStyle.Render("Error: " + err.Error())
}
