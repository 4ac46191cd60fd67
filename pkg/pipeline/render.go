package pipeline

import (
	"github.com/matzehuels/doublediamond/pkg/config"
	"github.com/matzehuels/doublediamond/pkg/errors"
	"github.com/matzehuels/doublediamond/pkg/layout"
	"github.com/matzehuels/doublediamond/pkg/render"
)

// Render serializes a geometry into one format. It bypasses the cache.
func Render(cfg config.Config, g layout.Geometry, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatSVG:
		var svgOpts []render.SVGOption
		if opts.Prolog {
			svgOpts = append(svgOpts, render.WithProlog())
		}
		return []byte(render.SVG(cfg, g, svgOpts...)), nil
	case FormatPNG:
		scale := opts.Scale
		if scale == 0 {
			scale = DefaultScale
		}
		return render.PNG(cfg, g, render.WithScale(scale))
	case FormatJSON:
		return render.JSON(cfg, g)
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format: %q", format)
}
