// Package config defines the diagram configuration record and the raw form
// state it is resolved from.
//
// A [Config] is the immutable input of one generation pass. Hosts never build
// it field by field; they keep an [Input] (every value as text, keyed by form
// field id) and call [Input.Resolve], which applies the defaulting policy:
// numeric fields are parsed leniently and fall back to documented defaults,
// text and color fields pass through untouched.
//
// # Usage
//
//	in := config.DefaultInput()
//	_ = in.Set("titleText", "Plan")
//	_ = in.Set("width", "1024px") // parsed as 1024
//	cfg := in.Resolve()
//
// Configuration files are loaded with [Load] (TOML, YAML or JSON, chosen by
// extension) and written with [Encode].
package config

// PhaseCount is the fixed number of phases in a double diamond.
const PhaseCount = 4

// Numeric defaults applied when a field is absent or not a number.
const (
	DefaultWidth       = 800
	DefaultHeight      = 600
	DefaultMargin      = 50
	DefaultGap         = 20
	DefaultStrokeWidth = 2
	DefaultTitleSize   = 32
	DefaultSubSize     = 18
	DefaultLabelSize   = 20
)

// Text and color defaults for a fresh form. [Input.Resolve] never falls back
// to these; they only seed [DefaultInput].
const (
	DefaultTitleText   = "Double Diamond Design Model"
	DefaultSubText     = "Design Council Framework"
	DefaultStrokeColor = "#333333"
	DefaultTextColor   = "#000000"
)

// DefaultPhases are the four stages of the Design Council model.
var DefaultPhases = [PhaseCount]Phase{
	{Label: "Discover", Color: "#FFD700"},
	{Label: "Define", Color: "#ADD8E6"},
	{Label: "Develop", Color: "#90EE90"},
	{Label: "Deliver", Color: "#FFB6C1"},
}

// Phase is one labeled, colored triangular region of the diagram.
type Phase struct {
	Label string `json:"label" toml:"label" yaml:"label"`
	Color string `json:"color" toml:"color" yaml:"color"`
}

// Config is a fully resolved diagram configuration.
//
// Colors are opaque strings handed to the renderer as-is. An empty TitleText
// or SubText suppresses the corresponding element and its header space.
// Phases are ordered left to right.
type Config struct {
	Width       int    `json:"width" toml:"width" yaml:"width"`
	Height      int    `json:"height" toml:"height" yaml:"height"`
	Margin      int    `json:"margin" toml:"margin" yaml:"margin"`
	Gap         int    `json:"gap" toml:"gap" yaml:"gap"`
	StrokeWidth int    `json:"stroke_width" toml:"stroke_width" yaml:"stroke_width"`
	TitleSize   int    `json:"title_size" toml:"title_size" yaml:"title_size"`
	SubSize     int    `json:"sub_size" toml:"sub_size" yaml:"sub_size"`
	LabelSize   int    `json:"label_size" toml:"label_size" yaml:"label_size"`
	StrokeColor string `json:"stroke_color" toml:"stroke_color" yaml:"stroke_color"`
	TextColor   string `json:"text_color" toml:"text_color" yaml:"text_color"`
	TitleText   string `json:"title_text" toml:"title_text" yaml:"title_text"`
	SubText     string `json:"sub_text" toml:"sub_text" yaml:"sub_text"`

	Phases [PhaseCount]Phase `json:"phases" toml:"phases" yaml:"phases"`
}

// Default returns the configuration a fresh form resolves to.
func Default() Config {
	return DefaultInput().Resolve()
}

// Input returns the form state that resolves back to c.
func (c Config) Input() Input {
	in := Input{
		KeyWidth:       itoa(c.Width),
		KeyHeight:      itoa(c.Height),
		KeyMargin:      itoa(c.Margin),
		KeyGap:         itoa(c.Gap),
		KeyStrokeWidth: itoa(c.StrokeWidth),
		KeyTitleSize:   itoa(c.TitleSize),
		KeySubSize:     itoa(c.SubSize),
		KeyLabelSize:   itoa(c.LabelSize),
		KeyStrokeColor: c.StrokeColor,
		KeyTextColor:   c.TextColor,
		KeyTitleText:   c.TitleText,
		KeySubText:     c.SubText,
	}
	for i, p := range c.Phases {
		in[PhaseLabelKey(i)] = p.Label
		in[PhaseColorKey(i)] = p.Color
	}
	return in
}
