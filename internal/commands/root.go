// Package commands provides CLI commands for genaiprobe.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/genaiprobe/internal/config"
	"github.com/diogo/genaiprobe/internal/gemini"
	"github.com/diogo/genaiprobe/internal/tui"
)

var (
	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// rootOptions holds the flags of the root command
type rootOptions struct {
	apiKey      string
	model       string
	theme       string
	file        string
	output      string
	interactive bool
	noSave      bool
	dump        bool
	verbose     bool
	version     bool
}

// NewRootCmd creates the root command with its subcommands
func NewRootCmd(deps *Dependencies) *cobra.Command {
	deps = deps.withDefaults()
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "genaiprobe [prompt]",
		Short: "Probe a generative image model and extract the image it returns",
		Long: `genaiprobe sends one prompt to a Gemini model, prints a debug report of the
response, and searches the response for image bytes whatever its shape.
The image is decoded to confirm it is valid and saved to disk.

Examples:
  genaiprobe "a lighthouse at dusk"       Generate from a prompt
  genaiprobe --theme "Desert Oasis"       Fill the configured prompt template
  genaiprobe -I                           Enter inputs in a form
  genaiprobe -f prompt.txt --dump         Read prompt from file, dump the response
  cat prompt.txt | genaiprobe --no-save   Read prompt from stdin
  genaiprobe inspect response.json        Extract from a saved JSON response`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.version {
				fmt.Fprintf(deps.Stdout, "genaiprobe %s (built %s)\n", Version, BuildTime)
				return nil
			}
			return runRoot(cmd, deps, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.apiKey, "api-key", "", "Gemini API key (default $GEMINI_API_KEY)")
	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "Model to use (e.g., gemini-2.0-flash-exp)")
	cmd.Flags().StringVar(&opts.theme, "theme", "", "Build the prompt from the configured template")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Read prompt from file")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Directory to save the image (default from config)")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "I", false, "Collect inputs in an interactive form")
	cmd.Flags().BoolVar(&opts.noSave, "no-save", false, "Do not save the extracted image")
	cmd.Flags().BoolVar(&opts.dump, "dump", false, "Print the full response dump")
	cmd.Flags().BoolVar(&opts.verbose, "verbose", false, "Show timing and the extraction trace")
	cmd.Flags().BoolVarP(&opts.version, "version", "v", false, "Show version and exit")

	cmd.AddCommand(NewInspectCmd(deps))
	cmd.AddCommand(NewConfigCmd(deps))

	return cmd
}

// rootCmd represents the base command
var rootCmd = NewRootCmd(nil)

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Error"))
		stop()
		os.Exit(1)
	}
}

func runRoot(cmd *cobra.Command, deps *Dependencies, opts *rootOptions, args []string) error {
	cfg, env, err := loadSettings(deps)
	if err != nil {
		return err
	}
	if opts.verbose {
		cfg.Verbose = true
	}

	req := gemini.Request{
		APIKey:     firstNonEmpty(opts.apiKey, env.Credential()),
		Model:      firstNonEmpty(opts.model, cfg.DefaultModel),
		Modalities: cfg.Modalities,
	}

	if opts.interactive {
		input, ok, err := deps.Form(tui.FormInput{
			APIKey: req.APIKey,
			Model:  req.Model,
			Theme:  firstNonEmpty(opts.theme, cfg.DefaultTheme),
		})
		if err != nil {
			return fmt.Errorf("form failed: %w", err)
		}
		if !ok {
			fmt.Fprintln(deps.Stderr, warnLine("Cancelled"))
			return nil
		}
		req.APIKey, req.Model = input.APIKey, input.Model
		req.Prompt = firstNonEmpty(input.Prompt, cfg.FormatPrompt(input.Theme))
	} else {
		prompt, err := resolvePrompt(deps, opts, args, cfg)
		if err != nil {
			return err
		}
		if prompt == "" {
			return cmd.Help()
		}
		req.Prompt = prompt
	}

	r := newRunner(deps, cfg)
	return r.generate(cmd.Context(), req, runOptions{
		outputDir: opts.output,
		noSave:    opts.noSave,
		dump:      opts.dump,
	})
}

// loadSettings loads the config file and applies environment overrides.
// A broken config file is reported and the defaults are used.
func loadSettings(deps *Dependencies) (config.Config, config.Env, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(deps.Stderr, warnLine(fmt.Sprintf("Using default config: %v", err)))
	}
	env, err := config.LoadEnv()
	if err != nil {
		return cfg, env, err
	}
	return env.Apply(cfg), env, nil
}

// resolvePrompt picks the prompt from, in order: the positional argument,
// the file flag, piped stdin and the theme template.
func resolvePrompt(deps *Dependencies, opts *rootOptions, args []string, cfg config.Config) (string, error) {
	if len(args) > 0 {
		return strings.TrimSpace(args[0]), nil
	}
	if opts.file != "" {
		data, err := os.ReadFile(opts.file)
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	if deps.StdinPiped {
		data, err := io.ReadAll(deps.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		if prompt := strings.TrimSpace(string(data)); prompt != "" {
			return prompt, nil
		}
	}
	if opts.theme != "" {
		return cfg.FormatPrompt(opts.theme), nil
	}
	return "", nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
