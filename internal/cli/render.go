package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/simheat/pkg/errors"
	"github.com/matzehuels/simheat/pkg/heatmap"
	"github.com/matzehuels/simheat/pkg/pipeline"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	output     string
	formats    string
	backend    string
	colormap   string
	method     string
	title      string
	labels     string
	classes    string
	vmin, vmax float64
	noCache    bool
	refresh    bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render MATRIX",
		Short: "Render a similarity matrix as a clustered heatmap",
		Long: `Render a similarity matrix as a clustered heatmap.

The matrix is a tab-separated table with a header row of ids and one row per
id. Rows and columns are clustered and reordered by dendrogram leaf order.

Output paths are derived from the input name unless -o is given; with several
formats, -o is used as the base name:

  simheat render ani.tab                       # ani.png
  simheat render ani.tab -o fig.pdf            # fig.pdf
  simheat render ani.tab -f png,svg -o out/ani # out/ani.png, out/ani.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			popts, err := c.renderPipelineOpts(cmd, args[0], opts)
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], popts, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "output file, or base path with several formats")
	f.StringVarP(&opts.formats, "format", "f", "", "output format(s), comma-separated: "+strings.Join(heatmap.Formats(), ", "))
	f.StringVarP(&opts.backend, "backend", "b", "", "layout: clustermap (default) or grid")
	f.StringVar(&opts.colormap, "cmap", "", "colour map (see 'simheat colormaps')")
	f.StringVar(&opts.method, "method", "", "linkage method: complete (default), single, average")
	f.StringVarP(&opts.title, "title", "t", "", "colourbar label")
	f.StringVar(&opts.labels, "labels", "", "id<TAB>label file")
	f.StringVar(&opts.classes, "classes", "", "id<TAB>class file")
	f.Float64Var(&opts.vmin, "vmin", 0, "lower colour scale bound (default: data minimum)")
	f.Float64Var(&opts.vmax, "vmax", 0, "upper colour scale bound (default: data maximum)")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	f.BoolVar(&opts.refresh, "refresh", false, "ignore cached results")
	registerValueCompletions(cmd)

	return cmd
}

// renderPipelineOpts merges flags over config defaults.
func (c *CLI) renderPipelineOpts(cmd *cobra.Command, input string, opts renderOpts) (pipeline.Options, error) {
	cfg := c.Config
	formats := parseFormats(opts.formats, nil)
	if len(formats) == 0 && opts.output != "" {
		if f, err := heatmap.FormatFromPath(opts.output); err == nil {
			formats = []string{f}
		}
	}
	if len(formats) == 0 {
		formats = cfg.Render.Formats
	}

	p := pipeline.Options{
		MatrixPath:  input,
		LabelsPath:  opts.labels,
		ClassesPath: opts.classes,
		Title:       opts.title,
		Backend:     firstNonEmpty(opts.backend, cfg.Render.Backend),
		Colormap:    firstNonEmpty(opts.colormap, cfg.Render.Colormap),
		Method:      firstNonEmpty(opts.method, cfg.Render.Method),
		Formats:     formats,
		Refresh:     opts.refresh,
		Logger:      c.Logger,
	}
	// Config maps apply only when the matching file flag is absent.
	if opts.labels == "" {
		p.Labels = cfg.Labels
	}
	if opts.classes == "" {
		p.Classes = cfg.Classes
	}
	if cmd.Flags().Changed("vmin") {
		p.VMin = &opts.vmin
	}
	if cmd.Flags().Changed("vmax") {
		p.VMax = &opts.vmax
	}
	if err := p.ValidateAndSetDefaults(); err != nil {
		return p, err
	}
	return p, nil
}

func (c *CLI) runRender(ctx context.Context, input string, p pipeline.Options, opts renderOpts) error {
	paths, err := outputPaths(input, opts.output, p.Formats)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	var spinner *Spinner
	if !c.verbose {
		name := filepath.Base(input)
		spinner = newSpinnerWithContext(ctx, "Loading "+name)
		defer trackStages(spinner, name)()
		spinner.Start()
	}
	prog := newProgress(c.Logger)
	result, err := runner.Execute(ctx, p)
	if spinner != nil {
		if spinner.Cancelled() {
			spinner.StopWithError("Cancelled " + input)
			return ctx.Err()
		}
		spinner.Stop()
	}
	if err != nil {
		return err
	}

	for _, format := range p.Formats {
		if err := os.WriteFile(paths[format], result.Artifacts[format], 0o644); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", paths[format])
		}
	}
	if c.verbose {
		prog.done("Rendered " + input)
	}

	printSuccess("Rendered %s", input)
	printStats(result.Stats.Size, result.CacheInfo.ClusterHit, result.CacheInfo.RenderHit)
	for _, format := range p.Formats {
		printFile(paths[format])
	}
	return nil
}

// outputPaths maps each format to its file. A single format with an output
// path ending in that format's extension uses the path as is; otherwise the
// output (or the input, when no output is given) minus a known image
// extension is the base name.
func outputPaths(input, output string, formats []string) (map[string]string, error) {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		if f, err := heatmap.FormatFromPath(output); err == nil && f == formats[0] {
			paths[f] = output
			return paths, errors.ValidateOutputPath(output)
		}
	}

	base := output
	if base == "" {
		base = strings.TrimSuffix(input, filepath.Ext(input))
	} else if heatmap.ValidFormat(strings.TrimPrefix(filepath.Ext(base), ".")) {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	for _, f := range formats {
		p := fmt.Sprintf("%s.%s", base, f)
		if err := errors.ValidateOutputPath(p); err != nil {
			return nil, err
		}
		paths[f] = p
	}
	return paths, nil
}
