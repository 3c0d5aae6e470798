package commands

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"testing"

	"google.golang.org/genai"

	"github.com/diogo/genaiprobe/internal/config"
	"github.com/diogo/genaiprobe/internal/extract"
	"github.com/diogo/genaiprobe/internal/gemini"
	"github.com/diogo/genaiprobe/internal/tui"
)

var envKeys = []string{
	"GEMINI_API_KEY", "GOOGLE_API_KEY", "GENAIPROBE_MODEL",
	"GENAIPROBE_VERBOSE", "GENAIPROBE_OUTPUT_DIR", "GLAMOUR_STYLE",
}

// testEnv isolates HOME and the environment and records collaborator calls
type testEnv struct {
	home      string
	deps      *Dependencies
	gen       *gemini.MockGenerator
	stdout    *bytes.Buffer
	stderr    *bytes.Buffer
	clipboard []string
	fetched   []string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Setenv("GEMINI_API_KEY", "test-key")

	env := &testEnv{
		home:   home,
		gen:    &gemini.MockGenerator{},
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	env.deps = &Dependencies{
		Generator: env.gen,
		NewFetcher: func(int) (extract.Fetcher, error) {
			return extract.FetcherFunc(func(_ context.Context, url string) ([]byte, error) {
				env.fetched = append(env.fetched, url)
				return nil, errors.New("offline")
			}), nil
		},
		Clipboard: func(text string) error {
			env.clipboard = append(env.clipboard, text)
			return nil
		},
		Form: func(tui.FormInput) (tui.FormInput, bool, error) {
			t.Fatal("form should not be opened")
			return tui.FormInput{}, false, nil
		},
		ConfigTUI: func(config.Config) error { return nil },
		Stdin:     strings.NewReader(""),
		Stdout:    env.stdout,
		Stderr:    env.stderr,
	}
	return env
}

func (e *testEnv) run(args ...string) error {
	cmd := NewRootCmd(e.deps)
	cmd.SetArgs(args)
	cmd.SetOut(e.stdout)
	cmd.SetErr(e.stderr)
	return cmd.Execute()
}

func pngFixture(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func responseWithParts(parts ...*genai.Part) *gemini.Response {
	return &gemini.Response{
		Model: "gemini-2.0-flash-exp",
		Raw: &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				FinishReason: genai.FinishReasonStop,
				Content:      &genai.Content{Role: "model", Parts: parts},
			}},
		},
	}
}

func imageResponse(t *testing.T) *gemini.Response {
	return responseWithParts(
		&genai.Part{Text: "Here is your stall."},
		&genai.Part{InlineData: &genai.Blob{MIMEType: "image/png", Data: pngFixture(t, 3, 2)}},
	)
}
