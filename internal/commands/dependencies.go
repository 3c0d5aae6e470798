package commands

import (
	"io"
	"os"

	"github.com/atotto/clipboard"

	"github.com/diogo/genaiprobe/internal/config"
	"github.com/diogo/genaiprobe/internal/extract"
	"github.com/diogo/genaiprobe/internal/fetch"
	"github.com/diogo/genaiprobe/internal/gemini"
	"github.com/diogo/genaiprobe/internal/tui"
)

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// Generator performs the generate call.
	Generator gemini.Generator

	// NewFetcher builds the fetcher for URL-valued attributes.
	NewFetcher func(timeoutSeconds int) (extract.Fetcher, error)

	// Clipboard copies text to the system clipboard.
	Clipboard func(text string) error

	// Form collects inputs interactively.
	Form func(defaults tui.FormInput) (tui.FormInput, bool, error)

	// ConfigTUI opens the configuration menu.
	ConfigTUI func(cfg config.Config) error

	Stdin      io.Reader
	StdinPiped bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	stat, _ := os.Stdin.Stat()
	return &Dependencies{
		Generator:  gemini.NewClient(),
		NewFetcher: newHTTPFetcher,
		Clipboard:  clipboard.WriteAll,
		Form:       tui.RunForm,
		ConfigTUI:  tui.RunConfig,
		Stdin:      os.Stdin,
		StdinPiped: stat != nil && stat.Mode()&os.ModeCharDevice == 0,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}
}

func newHTTPFetcher(timeoutSeconds int) (extract.Fetcher, error) {
	f, err := fetch.NewHTTPFetcher(timeoutSeconds)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// withDefaults returns a copy of d with unset fields filled in.
func (d *Dependencies) withDefaults() *Dependencies {
	defaults := NewDependencies()
	if d == nil {
		return defaults
	}
	out := *d
	if out.Generator == nil {
		out.Generator = defaults.Generator
	}
	if out.NewFetcher == nil {
		out.NewFetcher = defaults.NewFetcher
	}
	if out.Clipboard == nil {
		out.Clipboard = defaults.Clipboard
	}
	if out.Form == nil {
		out.Form = defaults.Form
	}
	if out.ConfigTUI == nil {
		out.ConfigTUI = defaults.ConfigTUI
	}
	if out.Stdin == nil {
		out.Stdin, out.StdinPiped = defaults.Stdin, defaults.StdinPiped
	}
	if out.Stdout == nil {
		out.Stdout = defaults.Stdout
	}
	if out.Stderr == nil {
		out.Stderr = defaults.Stderr
	}
	return &out
}
