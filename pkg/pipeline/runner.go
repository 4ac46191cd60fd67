package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/doublediamond/pkg/cache"
	"github.com/matzehuels/doublediamond/pkg/config"
	"github.com/matzehuels/doublediamond/pkg/layout"
	"github.com/matzehuels/doublediamond/pkg/observability"
)

// Runner encapsulates generation with caching.
// The CLI, the editor and the server all use it so caching and logging
// behave the same everywhere.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store results. Multiple goroutines can safely use the same Runner.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Generate lays out cfg and renders every requested format.
//
// Layout warnings are logged and returned on Result.Geometry; they never fail
// the run. Cache errors are logged and treated as misses.
func (r *Runner) Generate(ctx context.Context, cfg config.Config, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{
		Config:     cfg,
		ConfigHash: ConfigHash(cfg),
		Artifacts:  make(map[string][]byte, len(opts.Formats)),
	}

	// Stage 1: Layout
	hooks := observability.Pipeline()
	layoutStart := time.Now()
	hooks.OnLayoutStart(ctx, result.ConfigHash)
	result.Geometry = layout.Compute(cfg)
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.Warnings = len(result.Geometry.Warnings)
	hooks.OnLayoutComplete(ctx, result.ConfigHash, result.Stats.Warnings, result.Stats.LayoutTime)

	for _, w := range result.Geometry.Warnings {
		opts.Logger.Warn("degenerate layout", "code", w.Code, "field", w.Field, "detail", w.Message)
	}
	opts.Logger.Debug("computed layout",
		"canvas", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"cy", result.Geometry.CY,
		"phase_width", result.Geometry.PhaseWidth)

	// Stage 2: Render
	renderStart := time.Now()
	hooks.OnRenderStart(ctx, opts.Formats)
	hit, err := r.renderAll(ctx, result, opts)
	result.Stats.RenderTime = time.Since(renderStart)
	hooks.OnRenderComplete(ctx, opts.Formats, result.Stats.RenderTime, err)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.CacheHit = hit

	for _, data := range result.Artifacts {
		result.Stats.Bytes += len(data)
	}
	opts.Logger.Debug("rendered outputs",
		"formats", opts.Formats,
		"bytes", result.Stats.Bytes,
		"cached", hit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// renderAll fills result.Artifacts and reports whether all came from cache.
func (r *Runner) renderAll(ctx context.Context, result *Result, opts Options) (bool, error) {
	cacheHooks := observability.Cache()
	allCached := true

	for _, format := range opts.Formats {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		key := r.Keyer.ArtifactKey(result.ConfigHash, opts.ArtifactKeyOpts(format))

		if !opts.Refresh {
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil {
				opts.Logger.Warn("cache read failed", "format", format, "error", err)
			}
			if err == nil && hit {
				cacheHooks.OnCacheHit(ctx, "artifact")
				result.Artifacts[format] = data
				continue
			}
			cacheHooks.OnCacheMiss(ctx, "artifact")
		}
		allCached = false

		data, err := Render(result.Config, result.Geometry, format, opts)
		if err != nil {
			return false, fmt.Errorf("%s: %w", format, err)
		}
		result.Artifacts[format] = data

		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
			opts.Logger.Warn("cache write failed", "format", format, "error", err)
			continue
		}
		cacheHooks.OnCacheSet(ctx, "artifact", len(data))
	}
	return allCached, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
