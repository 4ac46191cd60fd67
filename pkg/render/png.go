package render

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/colornames"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/matzehuels/doublediamond/pkg/config"
	"github.com/matzehuels/doublediamond/pkg/errors"
	"github.com/matzehuels/doublediamond/pkg/layout"
)

// MaxPixels bounds the raster size of a PNG render.
const MaxPixels = 64 << 20

// PNGOption configures PNG rendering.
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	scale float64
}

// WithScale sets the PNG scale factor (default 1). A scale of 2 renders
// every coordinate, stroke and font at twice the size.
func WithScale(s float64) PNGOption {
	return func(r *pngRenderer) { r.scale = s }
}

// PNG rasterizes the diagram. Unlike [SVG] it can fail: the canvas must have
// a positive size within [MaxPixels] after scaling.
func PNG(cfg config.Config, g layout.Geometry, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{scale: 1}
	for _, opt := range opts {
		opt(&r)
	}
	s := r.scale
	if s <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "scale must be positive, got %g", s)
	}

	// Bounded in float64 first: int(w)*int(h) wraps for large canvases.
	fw, fh := math.Floor(g.Width*s), math.Floor(g.Height*s)
	if fw <= 0 || fh <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "canvas %gx%g has no pixels", fw, fh)
	}
	if fw > MaxPixels || fh > MaxPixels || fw*fh > MaxPixels {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "canvas %gx%g exceeds %d pixels", fw, fh, MaxPixels)
	}
	w, h := int(fw), int(fh)

	regular, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("load regular font: %w", err)
	}
	defer regular.Close()
	bold, err := text.NewFontSource(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("load bold font: %w", err)
	}
	defer bold.Close()

	dc := gg.NewContext(w, h)
	defer dc.Close()
	dc.ClearWithColor(gg.White)

	textColor := parseColor(cfg.TextColor)
	strokeColor := parseColor(cfg.StrokeColor)

	for i, p := range g.Phases {
		dc.MoveTo(p.Points[0].X*s, p.Points[0].Y*s)
		dc.LineTo(p.Points[1].X*s, p.Points[1].Y*s)
		dc.LineTo(p.Points[2].X*s, p.Points[2].Y*s)
		dc.ClosePath()

		dc.SetColor(parseColor(cfg.Phases[i].Color))
		if cfg.StrokeWidth <= 0 {
			if err := dc.Fill(); err != nil {
				return nil, fmt.Errorf("fill phase %d: %w", i+1, err)
			}
			continue
		}
		if err := dc.FillPreserve(); err != nil {
			return nil, fmt.Errorf("fill phase %d: %w", i+1, err)
		}
		dc.SetColor(strokeColor)
		dc.SetLineWidth(float64(cfg.StrokeWidth) * s)
		dc.SetLineJoin(gg.LineJoinRound)
		if err := dc.Stroke(); err != nil {
			return nil, fmt.Errorf("stroke phase %d: %w", i+1, err)
		}
	}

	dc.SetColor(textColor)
	if g.HasTitle && cfg.TitleSize > 0 {
		dc.SetFont(bold.Face(float64(cfg.TitleSize) * s))
		dc.DrawStringAnchored(cfg.TitleText, g.CenterX()*s, g.TitleY*s, 0.5, 0)
	}
	if g.HasSubtitle && cfg.SubSize > 0 {
		dc.SetFont(regular.Face(float64(cfg.SubSize) * s))
		dc.DrawStringAnchored(cfg.SubText, g.CenterX()*s, g.SubtitleY*s, 0.5, 0)
	}
	if cfg.LabelSize > 0 {
		dc.SetFont(regular.Face(float64(cfg.LabelSize) * s))
		for i, p := range g.Phases {
			dc.DrawStringAnchored(cfg.Phases[i].Label, p.Anchor.X*s, p.Anchor.Y*s, 0.5, 0.5)
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// parseColor resolves a CSS hex color or color name. Unknown values paint
// black, matching how browsers fall back for an invalid fill.
func parseColor(s string) color.Color {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		switch len(hex) {
		case 3, 4, 6, 8:
			if isHex(hex) {
				return gg.Hex(hex).Color()
			}
		}
		return color.Black
	}
	if c, ok := colornames.Map[s]; ok {
		return c
	}
	return color.Black
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}
