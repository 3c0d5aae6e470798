package commands

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/genai"

	"github.com/diogo/genaiprobe/internal/config"
	apierrors "github.com/diogo/genaiprobe/internal/errors"
	"github.com/diogo/genaiprobe/internal/tui"
)

func TestRootCommand_Metadata(t *testing.T) {
	cmd := NewRootCmd(newTestEnv(t).deps)

	if cmd.Use != "genaiprobe [prompt]" {
		t.Errorf("Expected use 'genaiprobe [prompt]', got %s", cmd.Use)
	}
	if cmd.Short == "" || cmd.Long == "" {
		t.Error("descriptions should not be empty")
	}
	for _, name := range []string{"api-key", "model", "theme", "file", "output", "interactive", "no-save", "dump", "verbose", "version"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("missing flag --%s", name)
		}
	}
	for _, sub := range []string{"inspect", "config"} {
		if c, _, err := cmd.Find([]string{sub}); err != nil || c.Name() != sub {
			t.Errorf("missing subcommand %s", sub)
		}
	}
}

func TestRootCommand_Version(t *testing.T) {
	env := newTestEnv(t)
	if err := env.run("-v"); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.Contains(env.stdout.String(), "genaiprobe "+Version) {
		t.Errorf("stdout = %q", env.stdout.String())
	}
	if env.gen.Called {
		t.Error("generator should not be called")
	}
}

func TestRootCommand_NoInputShowsHelp(t *testing.T) {
	env := newTestEnv(t)
	if err := env.run(); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.Contains(env.stdout.String(), "Usage:") {
		t.Errorf("expected help output, got %q", env.stdout.String())
	}
	if env.gen.Called {
		t.Error("generator should not be called")
	}
}

func TestRun_SavesImage(t *testing.T) {
	env := newTestEnv(t)
	env.gen.Response = imageResponse(t)
	outDir := filepath.Join(t.TempDir(), "images")

	if err := env.run("a lighthouse at dusk", "-m", "gemini-2.5-flash-image", "-o", outDir); err != nil {
		t.Fatalf("run failed: %v\nstderr: %s", err, env.stderr.String())
	}

	req := env.gen.LastReq
	if req.Prompt != "a lighthouse at dusk" || req.Model != "gemini-2.5-flash-image" || req.APIKey != "test-key" {
		t.Errorf("request = %+v", req)
	}
	if env.gen.Calls != 1 {
		t.Errorf("expected exactly one generate call, got %d", env.gen.Calls)
	}

	stdout := env.stdout.String()
	if !strings.Contains(stdout, "Response debug") || !strings.Contains(stdout, "Here is your stall.") {
		t.Errorf("report missing from stdout:\n%s", stdout)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one saved file, got %v (%v)", entries, err)
	}
	saved := filepath.Join(outDir, entries[0].Name())
	if !strings.HasSuffix(saved, ".png") {
		t.Errorf("saved file %s should be a png", saved)
	}
	if !strings.Contains(stdout, saved) {
		t.Errorf("stdout should list saved path %s", saved)
	}

	stderr := env.stderr.String()
	for _, want := range []string{"parts[1].inline_data.data", "Decoded png 3x2", "Saved to"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr missing %q:\n%s", want, stderr)
		}
	}
	if len(env.clipboard) != 0 {
		t.Error("clipboard should not be used by default")
	}
}

func TestRun_NoSave(t *testing.T) {
	env := newTestEnv(t)
	env.gen.Response = imageResponse(t)

	if err := env.run("prompt", "--no-save"); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if strings.Contains(env.stderr.String(), "Saved to") {
		t.Error("nothing should be saved with --no-save")
	}
	if _, err := os.Stat(filepath.Join(env.home, ".genaiprobe", "images")); !os.IsNotExist(err) {
		t.Errorf("output dir should not be created, stat err = %v", err)
	}
}

func TestRun_DefaultOutputDirAndClipboard(t *testing.T) {
	env := newTestEnv(t)
	env.gen.Response = imageResponse(t)

	cfg := config.DefaultConfig()
	cfg.CopyToClipboard = true
	if err := config.SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	if err := env.run("prompt"); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	entries, _ := os.ReadDir(filepath.Join(env.home, ".genaiprobe", "images"))
	if len(entries) != 1 {
		t.Fatalf("expected image in default output dir, got %d entries", len(entries))
	}
	if len(env.clipboard) != 1 || !strings.HasSuffix(env.clipboard[0], entries[0].Name()) {
		t.Errorf("clipboard = %v", env.clipboard)
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(*testEnv)
		args      []string
		check     func(error) bool
		wantCalls int
	}{
		{
			name:      "no image",
			setup:     func(e *testEnv) { e.gen.Response = responseWithParts(&genai.Part{Text: "only text"}) },
			args:      []string{"prompt"},
			check:     func(err error) bool { return errors.Is(err, apierrors.ErrNoImage) },
			wantCalls: 1,
		},
		{
			name: "bytes are not an image",
			setup: func(e *testEnv) {
				e.gen.Response = responseWithParts(&genai.Part{InlineData: &genai.Blob{Data: []byte("not an image")}})
			},
			args:      []string{"prompt"},
			check:     apierrors.IsDecodeError,
			wantCalls: 1,
		},
		{
			name: "generate fails",
			setup: func(e *testEnv) {
				e.gen.Err = apierrors.NewGenerateError("gemini-x", errors.New("quota"))
			},
			args:      []string{"prompt"},
			check:     apierrors.IsGenerateError,
			wantCalls: 1,
		},
		{
			name:      "missing api key",
			setup:     func(*testEnv) { os.Unsetenv("GEMINI_API_KEY") },
			args:      []string{"prompt"},
			check:     func(err error) bool { return errors.Is(err, apierrors.ErrNoAPIKey) },
			wantCalls: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			tt.setup(env)

			err := env.run(tt.args...)
			if err == nil || !tt.check(err) {
				t.Fatalf("unexpected error: %v", err)
			}
			if env.gen.Calls != tt.wantCalls {
				t.Errorf("generate calls = %d, want %d", env.gen.Calls, tt.wantCalls)
			}
		})
	}
}

func TestRun_APIKeyFlagOverridesEnv(t *testing.T) {
	env := newTestEnv(t)
	env.gen.Response = imageResponse(t)

	if err := env.run("prompt", "--api-key", "flag-key", "--no-save"); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if env.gen.LastReq.APIKey != "flag-key" {
		t.Errorf("APIKey = %q, want flag-key", env.gen.LastReq.APIKey)
	}
}

func TestRun_Dump(t *testing.T) {
	env := newTestEnv(t)
	env.gen.Response = imageResponse(t)

	if err := env.run("prompt", "--no-save", "--dump"); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(env.stdout.String(), `"inlineData"`) {
		t.Errorf("dump should include the raw response JSON:\n%s", env.stdout.String())
	}
}

func TestRun_VerboseTrace(t *testing.T) {
	env := newTestEnv(t)
	env.gen.Response = imageResponse(t)

	if err := env.run("prompt", "--no-save", "--verbose"); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	stderr := env.stderr.String()
	for _, want := range []string{"[verbose] Model: gemini-2.0-flash-exp", "payload found"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr missing %q:\n%s", want, stderr)
		}
	}
}

func TestRun_Interactive(t *testing.T) {
	env := newTestEnv(t)
	env.gen.Response = imageResponse(t)

	var defaults tui.FormInput
	env.deps.Form = func(d tui.FormInput) (tui.FormInput, bool, error) {
		defaults = d
		return tui.FormInput{APIKey: "form-key", Model: "form-model", Theme: "Desert Oasis"}, true, nil
	}

	if err := env.run("-I", "--no-save"); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if defaults.APIKey != "test-key" || defaults.Theme != config.DefaultConfig().DefaultTheme {
		t.Errorf("form defaults = %+v", defaults)
	}
	req := env.gen.LastReq
	if req.APIKey != "form-key" || req.Model != "form-model" {
		t.Errorf("request = %+v", req)
	}
	if !strings.Contains(req.Prompt, "Desert Oasis scene") {
		t.Errorf("prompt should come from the template, got %q", req.Prompt)
	}
}

func TestRun_InteractiveCancelled(t *testing.T) {
	env := newTestEnv(t)
	env.deps.Form = func(tui.FormInput) (tui.FormInput, bool, error) {
		return tui.FormInput{}, false, nil
	}

	if err := env.run("-I"); err != nil {
		t.Fatalf("cancel should not fail: %v", err)
	}
	if env.gen.Called {
		t.Error("generator should not be called after cancel")
	}
}

func TestResolvePrompt(t *testing.T) {
	promptFile := filepath.Join(t.TempDir(), "prompt.txt")
	if err := os.WriteFile(promptFile, []byte("  from file \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig()

	tests := []struct {
		name    string
		args    []string
		opts    rootOptions
		stdin   string
		piped   bool
		want    string
		wantErr bool
	}{
		{name: "positional wins", args: []string{"from arg"}, opts: rootOptions{file: promptFile, theme: "x"}, want: "from arg"},
		{name: "file", opts: rootOptions{file: promptFile}, want: "from file"},
		{name: "missing file", opts: rootOptions{file: promptFile + ".missing"}, wantErr: true},
		{name: "stdin", stdin: "from stdin\n", piped: true, want: "from stdin"},
		{name: "empty stdin falls back to theme", stdin: "  ", piped: true, opts: rootOptions{theme: "Lagoon"}, want: cfg.FormatPrompt("Lagoon")},
		{name: "stdin ignored when not piped", stdin: "ignored", opts: rootOptions{theme: "Lagoon"}, want: cfg.FormatPrompt("Lagoon")},
		{name: "nothing", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := &Dependencies{Stdin: strings.NewReader(tt.stdin), StdinPiped: tt.piped}
			got, err := resolvePrompt(deps, &tt.opts, tt.args, cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("resolvePrompt() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("resolvePrompt() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRun_BrokenConfigUsesDefaults(t *testing.T) {
	env := newTestEnv(t)
	env.gen.Response = imageResponse(t)

	dir := filepath.Join(env.home, ".genaiprobe")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{broken"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := env.run("prompt", "--no-save"); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(env.stderr.String(), "Using default config") {
		t.Errorf("expected config warning, got:\n%s", env.stderr.String())
	}
	if env.gen.LastReq.Model != config.DefaultConfig().DefaultModel {
		t.Errorf("Model = %q", env.gen.LastReq.Model)
	}
}

func TestRun_ConfiguredModalities(t *testing.T) {
	tests := []struct {
		name   string
		config string
		want   []string
	}{
		{"from config", `{"modalities": ["IMAGE"]}`, []string{"IMAGE"}},
		{"unset", `{}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.gen.Response = imageResponse(t)

			dir := filepath.Join(env.home, ".genaiprobe")
			if err := os.MkdirAll(dir, 0o700); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(tt.config), 0o600); err != nil {
				t.Fatal(err)
			}

			if err := env.run("prompt", "--no-save"); err != nil {
				t.Fatalf("run failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, env.gen.LastReq.Modalities); diff != "" {
				t.Errorf("Modalities mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
