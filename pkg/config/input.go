package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/doublediamond/pkg/errors"
)

// Form field ids. These are the canonical keys of an [Input].
const (
	KeyWidth       = "width"
	KeyHeight      = "height"
	KeyMargin      = "margin"
	KeyGap         = "gap"
	KeyStrokeWidth = "strokeWidth"
	KeyTitleSize   = "titleSize"
	KeySubSize     = "subSize"
	KeyLabelSize   = "labelSize"
	KeyStrokeColor = "strokeColor"
	KeyTextColor   = "textColor"
	KeyTitleText   = "titleText"
	KeySubText     = "subText"
)

// PhaseLabelKey returns the field id of the i-th (zero-based) phase label.
func PhaseLabelKey(i int) string { return fmt.Sprintf("p%dLabel", i+1) }

// PhaseColorKey returns the field id of the i-th (zero-based) phase color.
func PhaseColorKey(i int) string { return fmt.Sprintf("p%dColor", i+1) }

var keys = func() []string {
	k := []string{
		KeyWidth, KeyHeight, KeyMargin, KeyGap, KeyStrokeWidth,
		KeyTitleSize, KeySubSize, KeyLabelSize,
		KeyStrokeColor, KeyTextColor, KeyTitleText, KeySubText,
	}
	for i := 0; i < PhaseCount; i++ {
		k = append(k, PhaseLabelKey(i), PhaseColorKey(i))
	}
	return k
}()

var numericKeys = map[string]int{
	KeyWidth:       DefaultWidth,
	KeyHeight:      DefaultHeight,
	KeyMargin:      DefaultMargin,
	KeyGap:         DefaultGap,
	KeyStrokeWidth: DefaultStrokeWidth,
	KeyTitleSize:   DefaultTitleSize,
	KeySubSize:     DefaultSubSize,
	KeyLabelSize:   DefaultLabelSize,
}

// aliases maps alternate spellings (snake_case file keys and the desktop
// tool's option names) to canonical field ids.
var aliases = func() map[string]string {
	a := map[string]string{
		"stroke_width":  KeyStrokeWidth,
		"title_size":    KeyTitleSize,
		"sub_size":      KeySubSize,
		"subtitle_size": KeySubSize,
		"label_size":    KeyLabelSize,
		"font_size":     KeyLabelSize,
		"stroke_color":  KeyStrokeColor,
		"text_color":    KeyTextColor,
		"title":         KeyTitleText,
		"title_text":    KeyTitleText,
		"subtitle":      KeySubText,
		"sub_text":      KeySubText,
		"subtitle_text": KeySubText,
	}
	for i := 0; i < PhaseCount; i++ {
		a[fmt.Sprintf("p%d_label", i+1)] = PhaseLabelKey(i)
		a[fmt.Sprintf("p%d_color", i+1)] = PhaseColorKey(i)
	}
	return a
}()

// Keys returns every canonical field id in form order.
func Keys() []string {
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// IsNumeric reports whether the canonical key holds an integer field.
func IsNumeric(key string) bool {
	_, ok := numericKeys[key]
	return ok
}

// Canonical resolves a field id or alias to its canonical key.
func Canonical(key string) (string, bool) {
	if _, ok := numericKeys[key]; ok {
		return key, true
	}
	if c, ok := aliases[key]; ok {
		return c, true
	}
	for _, k := range keys {
		if k == key {
			return k, true
		}
	}
	return "", false
}

// Input is raw form state: every field is text, keyed by canonical field id.
// Missing keys behave like empty fields.
type Input map[string]string

// DefaultInput returns the initial form state, also used on reset.
func DefaultInput() Input {
	in := Input{
		KeyWidth:       itoa(DefaultWidth),
		KeyHeight:      itoa(DefaultHeight),
		KeyMargin:      itoa(DefaultMargin),
		KeyGap:         itoa(DefaultGap),
		KeyStrokeWidth: itoa(DefaultStrokeWidth),
		KeyTitleSize:   itoa(DefaultTitleSize),
		KeySubSize:     itoa(DefaultSubSize),
		KeyLabelSize:   itoa(DefaultLabelSize),
		KeyStrokeColor: DefaultStrokeColor,
		KeyTextColor:   DefaultTextColor,
		KeyTitleText:   DefaultTitleText,
		KeySubText:     DefaultSubText,
	}
	for i, p := range DefaultPhases {
		in[PhaseLabelKey(i)] = p.Label
		in[PhaseColorKey(i)] = p.Color
	}
	return in
}

// Get returns the raw value of a field.
func (in Input) Get(key string) (string, error) {
	k, ok := Canonical(key)
	if !ok {
		return "", errors.New(errors.ErrCodeInvalidConfig, "unknown field %q", key)
	}
	return in[k], nil
}

// Set stores the raw value of a field.
func (in Input) Set(key, value string) error {
	k, ok := Canonical(key)
	if !ok {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown field %q", key)
	}
	in[k] = value
	return nil
}

// Clone returns an independent copy.
func (in Input) Clone() Input {
	out := make(Input, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Merge overlays other onto a copy of in.
func (in Input) Merge(other Input) Input {
	out := in.Clone()
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Resolve applies the defaulting policy and returns the configuration record.
// It never fails.
func (in Input) Resolve() Config {
	c := Config{
		Width:       in.int(KeyWidth),
		Height:      in.int(KeyHeight),
		Margin:      in.int(KeyMargin),
		Gap:         in.int(KeyGap),
		StrokeWidth: in.int(KeyStrokeWidth),
		TitleSize:   in.int(KeyTitleSize),
		SubSize:     in.int(KeySubSize),
		LabelSize:   in.int(KeyLabelSize),
		StrokeColor: in[KeyStrokeColor],
		TextColor:   in[KeyTextColor],
		TitleText:   in[KeyTitleText],
		SubText:     in[KeySubText],
	}
	for i := range c.Phases {
		c.Phases[i] = Phase{
			Label: in[PhaseLabelKey(i)],
			Color: in[PhaseColorKey(i)],
		}
	}
	return c
}

func (in Input) int(key string) int {
	if n, ok := ParseInt(in[key]); ok {
		return n
	}
	return numericKeys[key]
}

// ParseInt parses the leading decimal integer of s: leading whitespace and a
// sign are accepted, the first run of digits is the value and anything after
// it is ignored ("12px" is 12, "3.9" is 3). It reports false when s has no
// leading digits or the value overflows.
//
// Unlike a browser's parseInt, a "0x" prefix is not read as hex ("0x10" is
// 0), and 0 is a valid result that callers keep rather than replace with a
// default.
func ParseInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\n\r\f\v")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func itoa(n int) string { return strconv.Itoa(n) }
