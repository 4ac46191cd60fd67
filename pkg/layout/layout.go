// Package layout computes the geometry of a double diamond diagram.
//
// [Compute] is a pure, total function: it turns a resolved [config.Config]
// into every coordinate the renderers need and never fails. Out-of-range
// inputs still produce (degenerate) geometry; they are additionally reported
// as [Warning] values on the result so hosts can surface them.
//
// The layout runs in two stages:
//
//  1. Header stacking: the title and subtitle each reserve 1.5 times their
//     font size below the top margin, plus a fixed padding when either is
//     present. The diamonds start below the header.
//  2. Horizontal partition: the margin-inset width is split by [Partition]
//     into two equal diamonds separated by the gap, each diamond into two
//     equal triangular halves.
//
// All four triangles share one horizontal axis, the vertical center of the
// drawing rectangle.
package layout

import (
	"github.com/matzehuels/doublediamond/pkg/config"
)

// Diamonds is the number of diamonds in the diagram.
const Diamonds = 2

// HeaderPadding separates the header from the diamonds when a title or
// subtitle is present.
const HeaderPadding = 20

// headerLineFactor is the vertical space a header line reserves, relative to
// its font size.
const headerLineFactor = 1.5

// Point is a 2D coordinate in canvas units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Phase is the computed shape of one phase: a closed triangle and the anchor
// of its centered label.
type Phase struct {
	Index  int      `json:"index"`
	Points [3]Point `json:"points"`
	Anchor Point    `json:"anchor"`
}

// Geometry holds every derived coordinate of one diagram.
type Geometry struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	HeaderHeight float64 `json:"header_height"`
	HasTitle     bool    `json:"has_title"`
	TitleY       float64 `json:"title_y,omitempty"`
	HasSubtitle  bool    `json:"has_subtitle"`
	SubtitleY    float64 `json:"subtitle_y,omitempty"`

	DrawXStart float64 `json:"draw_x_start"`
	DrawXEnd   float64 `json:"draw_x_end"`
	DrawYStart float64 `json:"draw_y_start"`
	DrawYEnd   float64 `json:"draw_y_end"`
	AvailW     float64 `json:"avail_w"`
	AvailH     float64 `json:"avail_h"`
	CY         float64 `json:"cy"`

	DiamondWidth float64 `json:"diamond_width"`
	PhaseWidth   float64 `json:"phase_width"`

	// X holds the six boundaries: left diamond left/mid/right, then right
	// diamond left/mid/right.
	X [2 * (Diamonds + 1)]float64 `json:"x"`

	Phases   [config.PhaseCount]Phase `json:"phases"`
	Warnings []Warning                `json:"warnings,omitempty"`
}

// CenterX is the horizontal center of the canvas, shared by title and subtitle.
func (g Geometry) CenterX() float64 {
	return g.Width / 2
}

// Compute lays out the diagram for cfg.
func Compute(cfg config.Config) Geometry {
	g := Geometry{
		Width:  float64(cfg.Width),
		Height: float64(cfg.Height),
	}
	margin := float64(cfg.Margin)

	currentY := margin
	if cfg.TitleText != "" {
		size := float64(cfg.TitleSize)
		g.HasTitle = true
		g.TitleY = currentY + size
		currentY += size * headerLineFactor
	}
	if cfg.SubText != "" {
		size := float64(cfg.SubSize)
		g.HasSubtitle = true
		g.SubtitleY = currentY + size
		currentY += size * headerLineFactor
	}
	g.HeaderHeight = currentY - margin
	if g.HasTitle || g.HasSubtitle {
		g.HeaderHeight += HeaderPadding
	}

	g.DrawXStart = margin
	g.DrawXEnd = g.Width - margin
	g.DrawYStart = margin + g.HeaderHeight
	g.DrawYEnd = g.Height - margin
	g.AvailW = g.DrawXEnd - g.DrawXStart
	g.AvailH = g.DrawYEnd - g.DrawYStart
	g.CY = g.DrawYStart + g.AvailH/2

	g.DiamondWidth = (g.AvailW - float64(cfg.Gap)) / Diamonds
	g.PhaseWidth = g.DiamondWidth / 2

	for i, d := range Partition(g.DrawXStart, g.AvailW, float64(cfg.Gap), Diamonds) {
		g.X[3*i] = d.Left
		g.X[3*i+1] = d.Mid
		g.X[3*i+2] = d.Right
	}

	top, bot := g.DrawYStart, g.DrawYEnd
	for d := 0; d < Diamonds; d++ {
		left, mid, right := g.X[3*d], g.X[3*d+1], g.X[3*d+2]
		// Outer half: apex at the diamond's outer edge, base on the midline.
		g.Phases[2*d] = Phase{
			Index:  2 * d,
			Points: [3]Point{{left, g.CY}, {mid, top}, {mid, bot}},
			Anchor: Point{left + g.PhaseWidth/2, g.CY},
		}
		// Inner half, mirrored.
		g.Phases[2*d+1] = Phase{
			Index:  2*d + 1,
			Points: [3]Point{{mid, top}, {right, g.CY}, {mid, bot}},
			Anchor: Point{mid + g.PhaseWidth/2, g.CY},
		}
	}

	g.Warnings = Check(cfg, g)
	return g
}

// Span is the horizontal extent of one diamond.
type Span struct {
	Left  float64
	Mid   float64
	Right float64
}

// Partition splits avail units starting at start into n equal diamonds
// separated by gap, each halved at its midpoint. Boundaries are accumulated
// from start so that each diamond's left edge is exactly gap past the previous
// right edge.
func Partition(start, avail, gap float64, n int) []Span {
	if n <= 0 {
		return nil
	}
	width := (avail - gap*float64(n-1)) / float64(n)
	half := width / 2

	spans := make([]Span, n)
	x := start
	for i := range spans {
		spans[i] = Span{Left: x, Mid: x + half, Right: x + width}
		x = spans[i].Right + gap
	}
	return spans
}
