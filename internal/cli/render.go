package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"svgtrav/pkg/resource"
)

type renderOptions struct {
	output string
	jobs   int
	script string // script source run between the first paint and a repaint
	name   string // script name used in errors
	slice  time.Duration
}

func newRenderCmd() *cobra.Command {
	var (
		opts       renderOptions
		scriptPath string
	)
	cmd := &cobra.Command{
		Use:   "render FILE...",
		Short: "Rasterize SVG documents to PNG",
		Long: `Render lays out each document and paints it to a PNG file.

With -o ending in .png a single input is written to that file; otherwise -o
names a directory that receives one NAME.png per input. Documents are
rendered in parallel, --jobs at a time.

--script runs a JavaScript file against the document after the first paint
and repaints only the area it changed, exercising incremental layout.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 && strings.HasSuffix(opts.output, ".png") {
				return fmt.Errorf("-o must name a directory when rendering %d documents", len(args))
			}
			if scriptPath != "" {
				src, err := os.ReadFile(scriptPath)
				if err != nil {
					return err
				}
				opts.script, opts.name = string(src), filepath.Base(scriptPath)
			}
			return runRender(cmd, args, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", ".", "output PNG file or directory")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", runtime.NumCPU(), "documents rendered in parallel")
	cmd.Flags().StringVar(&scriptPath, "script", "", "script to run before repainting")
	cmd.Flags().DurationVar(&opts.slice, "slice", 0, "lay out in time slices of this length")
	return cmd
}

// runRender renders every input. Each document is handled by one
// goroutine; the first failure cancels the documents still in progress.
func runRender(cmd *cobra.Command, inputs []string, opts renderOptions) error {
	g, ctx := errgroup.WithContext(cmd.Context())
	if opts.jobs > 0 {
		g.SetLimit(opts.jobs)
	}
	for _, in := range inputs {
		out := outputPath(in, opts.output, len(inputs))
		g.Go(func() error {
			if err := renderOne(ctx, cmd, in, out, opts); err != nil {
				return fmt.Errorf("%s: %w", in, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func renderOne(ctx context.Context, cmd *cobra.Command, uri, out string, opts renderOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s, err := openSession(cmd, uri)
	if err != nil {
		return err
	}
	p := newProgress(s.log)
	doc := s.doc
	if opts.slice > 0 {
		doc.Options.TimeSlice = opts.slice
	}

	steps := 1
	if doc.Options.TimeSlice > 0 {
		job, err := doc.StartLayout()
		if err != nil {
			return err
		}
		for {
			if err := ctx.Err(); err != nil {
				job.Cancel()
				return err
			}
			done, err := job.Step()
			if err != nil {
				return err
			}
			if done {
				break
			}
		}
		steps = job.Steps
	} else if err := doc.Layout(); err != nil {
		return err
	}

	w, h := doc.Size()
	r := s.cfg.NewRenderer(w, h, doc.Options.Measurer)
	if err := doc.Paint(r); err != nil {
		return err
	}
	if opts.script != "" {
		if err := doc.RunScript(opts.name, opts.script); err != nil {
			return err
		}
		region, err := doc.Repaint(r)
		if err != nil {
			return err
		}
		s.log.Debug("repainted", "region", region)
	}

	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return err
	}
	if err := r.SavePNG(out); err != nil {
		return err
	}
	p.done("rendered", "out", out, "size", fmt.Sprintf("%dx%d", w, h), "steps", steps)
	return nil
}

// outputPath names the PNG written for input.
func outputPath(input, output string, n int) string {
	if n == 1 && strings.HasSuffix(output, ".png") {
		return output
	}
	if output == "" {
		output = "."
	}
	name := "document"
	if !resource.IsDataURI(input) {
		base := input
		if i := strings.LastIndexAny(base, `/\`); i >= 0 {
			base = base[i+1:]
		}
		if i := strings.IndexAny(base, "?#"); i >= 0 {
			base = base[:i]
		}
		if base = strings.TrimSuffix(base, filepath.Ext(base)); base != "" {
			name = base
		}
	}
	return filepath.Join(output, name+".png")
}
