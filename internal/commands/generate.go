package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/diogo/genaiprobe/internal/config"
	apierrors "github.com/diogo/genaiprobe/internal/errors"
	"github.com/diogo/genaiprobe/internal/extract"
	"github.com/diogo/genaiprobe/internal/gemini"
	"github.com/diogo/genaiprobe/internal/imaging"
	"github.com/diogo/genaiprobe/internal/log"
	"github.com/diogo/genaiprobe/internal/render"
	"github.com/diogo/genaiprobe/internal/report"
)

// runOptions controls what happens to a found image
type runOptions struct {
	outputDir string
	noSave    bool
	dump      bool
}

// runner carries what a generate or inspect run needs
type runner struct {
	deps *Dependencies
	cfg  config.Config
	out  output
}

func newRunner(deps *Dependencies, cfg config.Config) *runner {
	return &runner{deps: deps, cfg: cfg, out: newOutput(deps, cfg.Verbose)}
}

// context attaches the logger the extractor traces through
func (r *runner) context(ctx context.Context) context.Context {
	return log.NewContext(ctx, log.New(r.deps.Stderr, r.cfg.Verbose))
}

func (r *runner) extractor(ctx context.Context) *extract.Extractor {
	opts := []extract.Option{
		extract.WithCandidates(r.cfg.Candidates()),
		extract.WithMaxDepth(r.cfg.Extraction.MaxDepth),
		extract.WithMaxVisits(r.cfg.Extraction.MaxVisits),
	}
	fetcher, err := r.deps.NewFetcher(r.cfg.Extraction.FetchTimeout)
	if err != nil {
		log.FromContextOrDiscard(ctx).Warn("URL fetching disabled", "error", err)
	} else {
		opts = append(opts, extract.WithFetcher(fetcher))
	}
	return extract.New(opts...)
}

// generate performs one generate call and processes its response
func (r *runner) generate(ctx context.Context, req gemini.Request, opts runOptions) error {
	if err := req.Validate(); err != nil {
		return err
	}
	ctx = r.context(ctx)

	r.out.verbosef("Model: %s", req.Model)
	r.out.verbosef("Prompt: %s", report.Truncate(req.Prompt, 200))

	spin := r.out.spinner("Generating image")
	spin.start()
	resp, err := r.deps.Generator.Generate(ctx, req)
	if err != nil {
		spin.stopWithError()
		return fmt.Errorf("generation failed: %w", err)
	}
	spin.stopWithSuccess("Response received")

	r.out.verbosef("Request took %s", resp.Duration.Round(time.Millisecond))
	if reason := resp.FinishReason(); reason != "" {
		r.out.verbosef("Finish reason: %s", reason)
	}

	rep := report.Build(resp.Raw,
		report.WithText(resp.Text()),
		report.WithModel(resp.Model, resp.Duration),
	)
	r.printReport(rep, opts.dump)

	_, err = r.process(ctx, resp, opts)
	return err
}

// process extracts, decodes and optionally saves the image in node. It
// returns the saved path, or "" when nothing was written.
func (r *runner) process(ctx context.Context, node any, opts runOptions) (string, error) {
	match, ok := r.extractor(ctx).Find(ctx, node)
	if !ok {
		r.out.warn("No image bytes found in response")
		return "", apierrors.ErrNoImage
	}
	where := match.Path
	if match.URL != "" {
		where += " <" + match.URL + ">"
	}
	r.out.success("Found %d bytes at %s (%s)", len(match.Data), where, match.Source)

	info, err := imaging.Decode(match.Data)
	if err != nil {
		return "", fmt.Errorf("bytes at %s: %w", match.Path, err)
	}
	r.out.success("Decoded %s", info)

	if opts.noSave {
		return "", nil
	}
	dir := firstNonEmpty(opts.outputDir, r.cfg.OutputDir)
	path, err := imaging.Save(dir, match.Data, info)
	if err != nil {
		return "", err
	}
	r.out.success("Saved to %s", path)
	if !r.out.decorated {
		fmt.Fprintln(r.out.stdout, path)
	}

	if r.cfg.CopyToClipboard {
		if err := r.deps.Clipboard(path); err != nil {
			r.out.warn("Failed to copy to clipboard: %v", err)
		} else {
			r.out.success("Copied path to clipboard")
		}
	}
	return path, nil
}

func (r *runner) printReport(rep report.Report, dump bool) {
	md := rep.Markdown()
	if !r.out.decorated {
		fmt.Fprintln(r.out.stdout, md)
	} else {
		width := r.out.width()
		rendered, err := render.Markdown(md, render.LoadOptions(r.cfg, width-4))
		if err != nil {
			rendered = md
		}
		fmt.Fprintln(r.out.stdout, labelStyle.Render("✦ Response"))
		fmt.Fprintln(r.out.stdout, reportStyle.Width(width).Render(strings.TrimRight(rendered, "\n")))
	}

	if dump {
		fmt.Fprintln(r.out.stdout, rep.TerminalDump())
	}
}
