// Package pipeline provides the generation pipeline for double diamond
// diagrams.
//
// This package implements the layout → render flow shared by the CLI, the
// terminal editor and the preview server. By centralizing it, every entry
// point applies the same defaults, logs the same warnings and shares the
// same artifact cache.
//
// # Architecture
//
// The pipeline consists of two stages:
//
//  1. Layout: compute the geometry of the resolved configuration
//  2. Render: serialize the geometry into each requested format (SVG, PNG, JSON)
//
// Layout is never cached (it is a handful of additions); rendered artifacts
// are cached by the SHA-256 of the canonical configuration plus the render
// options.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Generate(ctx, cfg, pipeline.Options{
//	    Formats: []string{"svg", "png"},
//	    Prolog:  true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Generate many diagrams concurrently:
//
//	results, err := runner.Batch(ctx, jobs, opts, 4)
package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/doublediamond/pkg/cache"
	"github.com/matzehuels/doublediamond/pkg/config"
	"github.com/matzehuels/doublediamond/pkg/errors"
	"github.com/matzehuels/doublediamond/pkg/layout"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, Editor, and Server
// =============================================================================

const (
	// DefaultScale is the PNG scale factor; 2 gives crisp output on
	// high-density displays.
	DefaultScale = 2.0

	// MaxScale bounds the PNG scale factor accepted from users.
	MaxScale = 8.0

	// DefaultConcurrency is the default number of parallel batch jobs.
	DefaultConcurrency = 4
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatJSON: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains the render configuration of one generation.
// This struct supports JSON serialization for API requests.
type Options struct {
	Formats []string `json:"formats,omitempty"`
	Prolog  bool     `json:"prolog,omitempty"` // XML declaration on SVG output
	Scale   float64  `json:"scale,omitempty"`  // PNG scale factor
	Refresh bool     `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// Progress, if set, is called by Batch after each job finishes with the
	// number of finished jobs. It may be called from several goroutines.
	Progress func(done, total int) `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Config is the configuration that was rendered.
	Config config.Config

	// ConfigHash is the content hash of the canonical configuration.
	ConfigHash string

	// Geometry is the computed layout, including any warnings.
	Geometry layout.Geometry

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheHit reports whether every artifact came from the cache.
	CacheHit bool
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Warnings   int
	LayoutTime time.Duration
	RenderTime time.Duration
	Bytes      int
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, png, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateScale checks that a PNG scale factor is usable.
func ValidateScale(scale float64) error {
	if scale <= 0 || scale > MaxScale {
		return errors.New(errors.ErrCodeInvalidInput, "invalid scale: %g (must be in (0, %g])", scale, MaxScale)
	}
	return nil
}

// ParseFormats splits a comma-separated format list ("svg,png") and
// validates each entry. Duplicates are removed, order is kept.
func ParseFormats(s string) ([]string, error) {
	var out []string
	seen := map[string]bool{}
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		if err := ValidateFormat(f); err != nil {
			return nil, err
		}
		seen[f] = true
		out = append(out, f)
	}
	return out, nil
}

// =============================================================================
// Options Methods
// =============================================================================

// SetDefaults fills unset fields.
func (o *Options) SetDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateAndSetDefaults applies defaults and validates the result.
func (o *Options) ValidateAndSetDefaults() error {
	o.SetDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	return ValidateScale(o.Scale)
}

// ArtifactKeyOpts returns cache key options for one format. Options that do
// not affect a format's bytes are left out so they share an entry.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format}
	switch format {
	case FormatSVG:
		k.Prolog = o.Prolog
	case FormatPNG:
		k.Scale = o.Scale
	}
	return k
}

// ConfigHash returns the content hash of the canonical JSON encoding of cfg.
func ConfigHash(cfg config.Config) string {
	data, err := json.Marshal(cfg)
	if err != nil {
		// Config holds only strings and ints.
		panic(fmt.Sprintf("marshal config: %v", err))
	}
	return cache.Hash(data)
}
