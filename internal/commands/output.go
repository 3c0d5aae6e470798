package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	apierrors "github.com/diogo/genaiprobe/internal/errors"
)

var (
	colorText     = lipgloss.Color("#c0caf5")
	colorTextDim  = lipgloss.Color("#565f89")
	colorTextMute = lipgloss.Color("#3b4261")
	colorSuccess  = lipgloss.Color("#9ece6a")
	colorWarning  = lipgloss.Color("#e0af68")
	colorError    = lipgloss.Color("#f7768e")
	colorPrimary  = lipgloss.Color("#7aa2f7")
)

var (
	labelStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	reportStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Foreground(colorText).
			Padding(0, 1).
			MarginBottom(1)

	dimStyle = lipgloss.NewStyle().Foreground(colorTextDim)
)

func successLine(msg string) string {
	return lipgloss.NewStyle().Foreground(colorSuccess).Bold(true).Render("✓") + " " +
		lipgloss.NewStyle().Foreground(colorSuccess).Render(msg)
}

func warnLine(msg string) string {
	return lipgloss.NewStyle().Foreground(colorWarning).Render("⚠ " + msg)
}

// output writes status lines to stderr and results to stdout
type output struct {
	stdout    io.Writer
	stderr    io.Writer
	decorated bool
	verbose   bool
}

func newOutput(deps *Dependencies, verbose bool) output {
	return output{
		stdout:    deps.Stdout,
		stderr:    deps.Stderr,
		decorated: isTerminal(deps.Stdout),
		verbose:   verbose,
	}
}

func (o output) success(format string, args ...any) {
	fmt.Fprintln(o.stderr, successLine(fmt.Sprintf(format, args...)))
}

func (o output) warn(format string, args ...any) {
	fmt.Fprintln(o.stderr, warnLine(fmt.Sprintf(format, args...)))
}

func (o output) verbosef(format string, args ...any) {
	if o.verbose {
		fmt.Fprintf(o.stderr, "[verbose] "+format+"\n", args...)
	}
}

func (o output) spinner(message string) *spinner {
	return newSpinner(o.stderr, message, isTerminal(o.stderr))
}

// width returns the content width for rendered output
func (o output) width() int {
	return min(max(getTerminalWidth(o.stdout)-4, 40), 120)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 80
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// formatErrorMessage formats an error with additional context from structured errors
func formatErrorMessage(err error, context string) string {
	if err == nil {
		return ""
	}

	errorStyle := lipgloss.NewStyle().Foreground(colorError)

	var sb strings.Builder
	sb.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s: %v", context, err)))

	if model := apierrors.GetModel(err); model != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  Model: %s", model)))
	}
	if status := apierrors.GetHTTPStatus(err); status > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  HTTP Status: %d", status)))
	}

	switch {
	case errors.Is(err, apierrors.ErrNoAPIKey):
		sb.WriteString(dimStyle.Render("\n  Hint: Set GEMINI_API_KEY or pass --api-key"))
	case errors.Is(err, apierrors.ErrEmptyPrompt):
		sb.WriteString(dimStyle.Render("\n  Hint: Pass a prompt, --theme, -f file or pipe text on stdin"))
	case errors.Is(err, apierrors.ErrNoImage):
		sb.WriteString(dimStyle.Render("\n  Hint: Run with --dump to see the full response, or add names under extraction.extra in the config"))
	case apierrors.IsDecodeError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: The bytes may not be an image; run with --verbose to see where they were found"))
	case apierrors.IsGenerateError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Check the model supports image output and the API key is valid"))
	case apierrors.IsValidationError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Run 'genaiprobe --help' for usage"))
	}

	return sb.String()
}
