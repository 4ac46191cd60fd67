package layout

import (
	"fmt"

	"github.com/matzehuels/doublediamond/pkg/config"
)

// WarningCode identifies a class of out-of-range configuration.
type WarningCode string

// Warning codes reported by [Check].
const (
	// WarnDegenerateWidth: the diamonds have zero or negative width, so
	// triangles collapse or invert.
	WarnDegenerateWidth WarningCode = "DEGENERATE_WIDTH"
	// WarnDegenerateHeight: the drawing rectangle has zero or negative
	// height, usually because the header or margins exceed the canvas.
	WarnDegenerateHeight WarningCode = "DEGENERATE_HEIGHT"
	// WarnNegativeGap: the diamonds overlap.
	WarnNegativeGap WarningCode = "NEGATIVE_GAP"
	// WarnNonPositiveSize: a canvas dimension, font size or stroke width is
	// out of range.
	WarnNonPositiveSize WarningCode = "NON_POSITIVE_SIZE"
)

// Warning describes a configuration value that produced degenerate geometry.
// Field is the form field id the warning is about.
type Warning struct {
	Code    WarningCode `json:"code"`
	Field   string      `json:"field"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s (%s): %s", w.Code, w.Field, w.Message)
}

// Check inspects a configuration and its computed geometry for out-of-range
// values. It returns nil when the geometry is well formed.
func Check(cfg config.Config, g Geometry) []Warning {
	var ws []Warning
	add := func(code WarningCode, field, format string, args ...any) {
		ws = append(ws, Warning{Code: code, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if cfg.Width <= 0 {
		add(WarnNonPositiveSize, config.KeyWidth, "canvas width %d is not positive", cfg.Width)
	}
	if cfg.Height <= 0 {
		add(WarnNonPositiveSize, config.KeyHeight, "canvas height %d is not positive", cfg.Height)
	}
	if g.HasTitle && cfg.TitleSize <= 0 {
		add(WarnNonPositiveSize, config.KeyTitleSize, "title size %d is not positive", cfg.TitleSize)
	}
	if g.HasSubtitle && cfg.SubSize <= 0 {
		add(WarnNonPositiveSize, config.KeySubSize, "subtitle size %d is not positive", cfg.SubSize)
	}
	if cfg.LabelSize <= 0 {
		add(WarnNonPositiveSize, config.KeyLabelSize, "label size %d is not positive", cfg.LabelSize)
	}
	if cfg.StrokeWidth < 0 {
		add(WarnNonPositiveSize, config.KeyStrokeWidth, "stroke width %d is negative", cfg.StrokeWidth)
	}
	if cfg.Gap < 0 {
		add(WarnNegativeGap, config.KeyGap, "gap %d makes the diamonds overlap", cfg.Gap)
	}
	if g.PhaseWidth <= 0 {
		add(WarnDegenerateWidth, config.KeyMargin,
			"diamond width %g is not positive (available width %g, gap %d)", g.DiamondWidth, g.AvailW, cfg.Gap)
	}
	if g.AvailH <= 0 {
		add(WarnDegenerateHeight, config.KeyMargin,
			"drawing height %g is not positive (header %g, margin %d)", g.AvailH, g.HeaderHeight, cfg.Margin)
	}
	return ws
}
