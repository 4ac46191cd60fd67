package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/doublediamond/pkg/config"
	"github.com/matzehuels/doublediamond/pkg/layout"
)

const xmlProlog = `<?xml version="1.0" encoding="UTF-8" standalone="no"?>` + "\n"

const fontFamily = "Arial, sans-serif"

type SVGOption func(*svgRenderer)

type svgRenderer struct {
	prolog bool
}

// WithProlog prepends the XML declaration, for documents written to disk.
func WithProlog() SVGOption { return func(r *svgRenderer) { r.prolog = true } }

// SVG renders the diagram as an SVG document.
func SVG(cfg config.Config, g layout.Geometry, opts ...SVGOption) string {
	var r svgRenderer
	for _, opt := range opts {
		opt(&r)
	}

	var buf bytes.Buffer
	if r.prolog {
		buf.WriteString(xmlProlog)
	}
	fmt.Fprintf(&buf, `<svg width="%s" height="%s" viewBox="0 0 %s %s" xmlns="http://www.w3.org/2000/svg">`+"\n",
		num(g.Width), num(g.Height), num(g.Width), num(g.Height))

	renderStyle(&buf, cfg)
	buf.WriteString(`  <rect width="100%" height="100%" fill="white" />` + "\n")

	if g.HasTitle {
		fmt.Fprintf(&buf, `  <text x="%s" y="%s" class="title">%s</text>`+"\n",
			num(g.CenterX()), num(g.TitleY), escape(cfg.TitleText))
	}
	if g.HasSubtitle {
		fmt.Fprintf(&buf, `  <text x="%s" y="%s" class="subtitle">%s</text>`+"\n",
			num(g.CenterX()), num(g.SubtitleY), escape(cfg.SubText))
	}

	for i, p := range g.Phases {
		phase := cfg.Phases[i]
		fmt.Fprintf(&buf, `  <path d="%s" fill="%s" />`+"\n", pathData(p.Points), escape(phase.Color))
		fmt.Fprintf(&buf, `  <text x="%s" y="%s" class="phase-text">%s</text>`+"\n",
			num(p.Anchor.X), num(p.Anchor.Y), escape(phase.Label))
	}

	buf.WriteString("</svg>\n")
	return buf.String()
}

func renderStyle(buf *bytes.Buffer, cfg config.Config) {
	text := escape(cfg.TextColor)
	buf.WriteString("  <style>\n")
	fmt.Fprintf(buf, "    .phase-text { font-family: %s; font-size: %dpx; fill: %s; text-anchor: middle; dominant-baseline: middle; }\n",
		fontFamily, cfg.LabelSize, text)
	fmt.Fprintf(buf, "    .title { font-family: %s; font-size: %dpx; font-weight: bold; fill: %s; text-anchor: middle; }\n",
		fontFamily, cfg.TitleSize, text)
	fmt.Fprintf(buf, "    .subtitle { font-family: %s; font-size: %dpx; fill: %s; text-anchor: middle; }\n",
		fontFamily, cfg.SubSize, text)
	fmt.Fprintf(buf, "    path { stroke: %s; stroke-width: %d; stroke-linejoin: round; }\n",
		escape(cfg.StrokeColor), cfg.StrokeWidth)
	buf.WriteString("  </style>\n")
}

func pathData(pts [3]layout.Point) string {
	var sb strings.Builder
	for i, p := range pts {
		if i == 0 {
			sb.WriteString("M ")
		} else {
			sb.WriteString(" L ")
		}
		sb.WriteString(num(p.X))
		sb.WriteByte(',')
		sb.WriteString(num(p.Y))
	}
	sb.WriteString(" Z")
	return sb.String()
}

// num formats v in its shortest exact decimal form: 334, 227.5.
func num(v float64) string {
	if v == 0 {
		return "0" // also covers -0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func escape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
