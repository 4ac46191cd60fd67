// Package render serializes a computed double diamond into output formats.
//
// # Overview
//
// Every renderer takes the same two inputs, the resolved [config.Config] and
// the [layout.Geometry] computed from it, and holds no state between calls:
//
//   - [SVG]: the self-contained vector document (the primary output)
//   - [PNG]: a raster image drawn with gogpu/gg and the Go fonts
//   - [JSON]: the configuration and geometry as an indented JSON document
//
// # SVG
//
//	g := layout.Compute(cfg)
//	svg := render.SVG(cfg, g)                     // inline preview
//	doc := render.SVG(cfg, g, render.WithProlog()) // standalone export
//
// Styling is emitted once as class rules in a <style> block; the four phase
// paths and labels follow in phase order so phase 1 is always leftmost. All
// user text and color values are XML-escaped.
//
// # PNG
//
//	png, err := render.PNG(cfg, g, render.WithScale(2))
//
// Colors are parsed as hex (#rgb, #rrggbb, with optional alpha) or CSS color
// names; anything else paints black.
//
// [config.Config]: github.com/matzehuels/doublediamond/pkg/config#Config
// [layout.Geometry]: github.com/matzehuels/doublediamond/pkg/layout#Geometry
package render
