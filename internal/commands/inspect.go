package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/diogo/genaiprobe/internal/extract"
	"github.com/diogo/genaiprobe/internal/report"
)

// NewInspectCmd creates the inspect command
func NewInspectCmd(deps *Dependencies) *cobra.Command {
	var (
		outputDir string
		dump      bool
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <response.json>...",
		Short: "Extract images from saved JSON responses",
		Long: `Run the image extractor over JSON responses saved to disk, without calling
the API. Each file is reported separately. Images are saved only when
--output is given.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadSettings(deps)
			if err != nil {
				return err
			}
			if verbose {
				cfg.Verbose = true
			}

			r := newRunner(deps, cfg)
			ctx := r.context(cmd.Context())
			opts := runOptions{outputDir: outputDir, noSave: outputDir == "", dump: dump}

			failed := 0
			for _, path := range args {
				if err := r.inspectFile(ctx, path, opts); err != nil {
					fmt.Fprintln(deps.Stderr, formatErrorMessage(err, path))
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory to save extracted images")
	cmd.Flags().BoolVar(&dump, "dump", false, "Print each parsed response")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Show the extraction trace")

	return cmd
}

func (r *runner) inspectFile(ctx context.Context, path string, opts runOptions) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	node, err := extract.ParseJSON(data)
	if err != nil {
		return err
	}

	fmt.Fprintln(r.out.stderr, labelStyle.Render("✦ "+path))
	if opts.dump {
		fmt.Fprintln(r.out.stdout, report.Truncate(string(data), report.DumpLimit))
	}
	_, err = r.process(ctx, node, opts)
	return err
}
