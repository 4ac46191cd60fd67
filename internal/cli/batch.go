package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/doublediamond/pkg/config"
	"github.com/matzehuels/doublediamond/pkg/errors"
	"github.com/matzehuels/doublediamond/pkg/pipeline"
)

// batchOpts holds the command-line flags for the batch command.
type batchOpts struct {
	outDir      string
	formats     string
	sets        []string
	scale       float64
	concurrency int
	noCache     bool
}

// batchCommand renders many config files in parallel. Each file becomes
// <out>/<name>.<format>, where name is the file name without extension.
func (c *CLI) batchCommand() *cobra.Command {
	opts := batchOpts{
		outDir:      ".",
		scale:       pipeline.DefaultScale,
		concurrency: pipeline.DefaultConcurrency,
	}

	cmd := &cobra.Command{
		Use:   "batch <config-file>...",
		Short: "Render many diagram configs in parallel",
		Example: `  doublediamond batch plans/*.toml -o out -f svg,png
  doublediamond batch q1.yaml q2.yaml --set textColor=#222`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBatch(cmd.Context(), args, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.outDir, "output", "o", opts.outDir, "output directory")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): svg (default), png, json (comma-separated)")
	cmd.Flags().StringArrayVar(&opts.sets, "set", nil, "override a field in every config, e.g. --set gap=30 (repeatable)")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG pixel ratio")
	cmd.Flags().IntVarP(&opts.concurrency, "jobs", "j", opts.concurrency, "diagrams rendered at once")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")

	return cmd
}

func (c *CLI) runBatch(ctx context.Context, files []string, opts *batchOpts) error {
	logger := loggerFromContext(ctx)

	formats, err := pipeline.ParseFormats(opts.formats)
	if err != nil {
		return err
	}
	if len(formats) == 0 {
		formats = []string{pipeline.FormatSVG}
	}

	jobs, err := loadJobs(files, opts.sets)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(logger, len(jobs))
	spinner := newSpinnerWithContext(ctx, prog.String())
	prog.onChange = spinner.SetMessage
	spinner.Start()
	results, err := runner.Batch(ctx, jobs, pipeline.Options{
		Formats:  formats,
		Prolog:   true,
		Scale:    opts.scale,
		Progress: prog.report,
	}, opts.concurrency)
	if err != nil {
		if spinner.Cancelled() {
			spinner.StopWithError("Batch canceled after " + prog.String())
		} else {
			spinner.StopWithError(errors.UserMessage(err))
		}
		return err
	}
	spinner.Stop()

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			printError("%s: %s", res.Job.Name, errors.UserMessage(res.Err))
			continue
		}
		printSuccess("%s", res.Job.Name)
		for _, format := range formats {
			path := filepath.Join(opts.outDir, res.Job.Name+"."+format)
			if err := writeFile(path, res.Result.Artifacts[format]); err != nil {
				return err
			}
			printFile(path)
		}
		printStats(res.Result.Stats.Warnings, res.Result.Stats.Bytes, res.Result.CacheHit)
	}
	prog.done(failed)

	if failed > 0 {
		return fmt.Errorf("%d of %d diagrams failed", failed, len(results))
	}
	return nil
}

// loadJobs reads each config file onto the defaults and applies the shared
// overrides. Job names must be unique since they become file names.
func loadJobs(files, sets []string) ([]pipeline.Job, error) {
	jobs := make([]pipeline.Job, 0, len(files))
	seen := make(map[string]string, len(files))
	for _, path := range files {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if prev, ok := seen[name]; ok {
			return nil, errors.New(errors.ErrCodeInvalidInput, "%s and %s would both write %q", prev, path, name)
		}
		seen[name] = path

		file, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		in := config.DefaultInput().Merge(file)
		if err := applySets(in, sets); err != nil {
			return nil, err
		}
		jobs = append(jobs, pipeline.Job{Name: name, Config: in.Resolve()})
	}
	return jobs, nil
}
