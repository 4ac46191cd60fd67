package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/doublediamond/pkg/errors"
	"github.com/matzehuels/doublediamond/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	source  configSource
	output  string  // output file path (or base path for multiple formats)
	formats string  // comma-separated output formats
	prefix  string  // export file name prefix when no output is given
	scale   float64 // PNG device pixel ratio
	noCache bool    // bypass the artifact cache entirely
	refresh bool    // re-render even when cached
	stdout  bool    // write a single artifact to stdout
}

// renderCommand creates the render command for generating diagrams.
//
// Without -o, files are named like the browser export:
// double-diamond-<unix-millis>.<format> in the working directory.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{scale: pipeline.DefaultScale}

	cmd := &cobra.Command{
		Use:   "render [config-file]",
		Short: "Render a Double Diamond diagram to SVG, PNG or JSON",
		Example: `  doublediamond render
  doublediamond render plan.toml -f svg,png -o out/plan
  doublediamond render --set titleText="Q3 Roadmap" --set p1Color=#a0c4ff`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if opts.source.file != "" {
					return errors.New(errors.ErrCodeInvalidInput, "config given both as argument and --config")
				}
				opts.source.file = args[0]
			}
			return c.runRender(cmd.Context(), &opts)
		},
	}

	opts.source.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): svg (default), png, json (comma-separated)")
	cmd.Flags().StringVar(&opts.prefix, "prefix", pipeline.DefaultExportPrefix, "file name prefix when no --output is given")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG pixel ratio")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even if cached")
	cmd.Flags().BoolVar(&opts.stdout, "stdout", false, "write the artifact to stdout (single format only)")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	formats, err := pipeline.ParseFormats(opts.formats)
	if err != nil {
		return err
	}
	if len(formats) == 0 {
		formats = []string{pipeline.FormatSVG}
	}
	if opts.stdout && len(formats) != 1 {
		return errors.New(errors.ErrCodeInvalidInput, "--stdout needs exactly one format, got %d", len(formats))
	}
	if err := errors.ValidateExportPrefix(opts.prefix); err != nil {
		return err
	}
	if opts.output != "" {
		if err := errors.ValidateOutputPath(opts.output); err != nil {
			return err
		}
	}

	in, err := opts.source.load()
	if err != nil {
		return err
	}
	cfg := in.Resolve()

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(logger, 1)
	result, err := runner.Generate(ctx, cfg, pipeline.Options{
		Formats: formats,
		Prolog:  true,
		Scale:   opts.scale,
		Refresh: opts.refresh,
	})
	if err != nil {
		return err
	}
	prog.report(1, 1)
	prog.done(0)

	if opts.stdout {
		_, err := os.Stdout.Write(result.Artifacts[formats[0]])
		return err
	}

	for _, w := range result.Geometry.Warnings {
		printWarning("%s", w.Message)
	}

	paths := outputPaths(opts.output, opts.prefix, formats, time.Now())
	printSuccess("Rendered %s", StyleHighlight.Render(cfg.TitleText))
	for _, format := range formats {
		if err := writeFile(paths[format], result.Artifacts[format]); err != nil {
			return err
		}
		printFile(paths[format])
	}
	printStats(result.Stats.Warnings, result.Stats.Bytes, result.CacheHit)
	return nil
}

// outputPaths maps each format to its destination file.
//
// A single format is written to output verbatim; several formats share the
// base of output (a known format extension is stripped). With no output, the
// timestamped export name is used.
func outputPaths(output, prefix string, formats []string, now time.Time) map[string]string {
	paths := make(map[string]string, len(formats))
	for _, format := range formats {
		switch {
		case output == "":
			paths[format] = pipeline.ExportFilename(prefix, now, format)
		case len(formats) == 1:
			paths[format] = output
		default:
			paths[format] = basePath(output) + "." + format
		}
	}
	return paths
}

// basePath strips a known format extension (.svg, .png, .json) from output.
func basePath(output string) string {
	ext := filepath.Ext(output)
	if pipeline.ValidateFormat(strings.TrimPrefix(ext, ".")) == nil {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// writeFile writes data to path, creating parent directories.
func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
	}
	return nil
}
