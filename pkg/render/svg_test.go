package render

import (
	"encoding/xml"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/doublediamond/pkg/config"
	"github.com/matzehuels/doublediamond/pkg/layout"
)

func planConfig() config.Config {
	return config.Config{
		Width:       800,
		Height:      600,
		Margin:      50,
		Gap:         20,
		TitleText:   "Plan",
		TitleSize:   32,
		SubSize:     18,
		LabelSize:   20,
		StrokeWidth: 2,
		StrokeColor: "#333",
		TextColor:   "#000",
		Phases: [config.PhaseCount]config.Phase{
			{Label: "Discover", Color: "#f00"},
			{Label: "Define", Color: "#0f0"},
			{Label: "Develop", Color: "#00f"},
			{Label: "Deliver", Color: "#ff0"},
		},
	}
}

func TestSVGGolden(t *testing.T) {
	cfg := planConfig()
	got := SVG(cfg, layout.Compute(cfg))

	want := `<svg width="800" height="600" viewBox="0 0 800 600" xmlns="http://www.w3.org/2000/svg">
  <style>
    .phase-text { font-family: Arial, sans-serif; font-size: 20px; fill: #000; text-anchor: middle; dominant-baseline: middle; }
    .title { font-family: Arial, sans-serif; font-size: 32px; font-weight: bold; fill: #000; text-anchor: middle; }
    .subtitle { font-family: Arial, sans-serif; font-size: 18px; fill: #000; text-anchor: middle; }
    path { stroke: #333; stroke-width: 2; stroke-linejoin: round; }
  </style>
  <rect width="100%" height="100%" fill="white" />
  <text x="400" y="82" class="title">Plan</text>
  <path d="M 50,334 L 220,118 L 220,550 Z" fill="#f00" />
  <text x="135" y="334" class="phase-text">Discover</text>
  <path d="M 220,118 L 390,334 L 220,550 Z" fill="#0f0" />
  <text x="305" y="334" class="phase-text">Define</text>
  <path d="M 410,334 L 580,118 L 580,550 Z" fill="#00f" />
  <text x="495" y="334" class="phase-text">Develop</text>
  <path d="M 580,118 L 750,334 L 580,550 Z" fill="#ff0" />
  <text x="665" y="334" class="phase-text">Deliver</text>
</svg>
`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("SVG() mismatch (-want +got):\n%s", diff)
	}
}

func TestSVGElementCounts(t *testing.T) {
	tests := []struct {
		name          string
		title, sub    string
		wantTitles    int
		wantSubtitles int
	}{
		{"title only", "Plan", "", 1, 0},
		{"both", "Plan", "Council", 1, 1},
		{"none", "", "", 0, 0},
		{"subtitle only", "", "Council", 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := planConfig()
			cfg.TitleText, cfg.SubText = tt.title, tt.sub
			svg := SVG(cfg, layout.Compute(cfg))

			if n := strings.Count(svg, "<path "); n != 4 {
				t.Errorf("path count = %d, want 4", n)
			}
			if n := strings.Count(svg, `class="title"`); n != tt.wantTitles {
				t.Errorf("title count = %d, want %d", n, tt.wantTitles)
			}
			if n := strings.Count(svg, `class="subtitle"`); n != tt.wantSubtitles {
				t.Errorf("subtitle count = %d, want %d", n, tt.wantSubtitles)
			}
			if n := strings.Count(svg, `class="phase-text"`); n != 4 {
				t.Errorf("label count = %d, want 4", n)
			}
		})
	}
}

func TestSVGPhaseOrder(t *testing.T) {
	cfg := planConfig()
	svg := SVG(cfg, layout.Compute(cfg))

	last := -1
	for _, p := range cfg.Phases {
		i := strings.Index(svg, ">"+p.Label+"<")
		if i <= last {
			t.Fatalf("label %q at %d, want after %d", p.Label, i, last)
		}
		last = i
	}
}

func TestSVGEscapesText(t *testing.T) {
	cfg := planConfig()
	cfg.TitleText = `R&D <beta>`
	cfg.SubText = `"quoted"`
	cfg.Phases[0].Label = "a < b & c > d"
	cfg.Phases[1].Color = `red" onload="x`
	cfg.StrokeColor = "</style>"
	svg := SVG(cfg, layout.Compute(cfg))

	for _, want := range []string{
		"R&amp;D &lt;beta&gt;",
		"&#34;quoted&#34;",
		"a &lt; b &amp; c &gt; d",
		`fill="red&#34; onload=&#34;x"`,
		"stroke: &lt;/style&gt;;",
	} {
		if !strings.Contains(svg, want) {
			t.Errorf("SVG() missing %q", want)
		}
	}
	assertWellFormed(t, svg)
}

func TestSVGProlog(t *testing.T) {
	cfg := planConfig()
	g := layout.Compute(cfg)

	plain := SVG(cfg, g)
	doc := SVG(cfg, g, WithProlog())

	if strings.HasPrefix(plain, "<?xml") {
		t.Error("SVG() without WithProlog starts with XML declaration")
	}
	if !strings.HasPrefix(doc, `<?xml version="1.0" encoding="UTF-8" standalone="no"?>`+"\n<svg ") {
		t.Errorf("SVG(WithProlog) prefix = %q", doc[:60])
	}
	if strings.TrimPrefix(doc, xmlProlog) != plain {
		t.Error("WithProlog changed the document body")
	}
	assertWellFormed(t, doc)
}

func TestSVGIdempotent(t *testing.T) {
	cfg := planConfig()
	cfg.Width = 801
	if a, b := SVG(cfg, layout.Compute(cfg)), SVG(cfg, layout.Compute(cfg)); a != b {
		t.Error("SVG() not idempotent")
	}
}

func TestSVGDegenerateIsWellFormed(t *testing.T) {
	cfg := planConfig()
	cfg.Margin = 500
	cfg.Gap = -40
	svg := SVG(cfg, layout.Compute(cfg))

	if n := strings.Count(svg, "<path "); n != 4 {
		t.Errorf("path count = %d, want 4", n)
	}
	assertWellFormed(t, svg)
}

func TestNum(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{334, "334"},
		{227.5, "227.5"},
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{-55, "-55"},
		{170.25, "170.25"},
		{1e7, "10000000"},
	}

	for _, tt := range tests {
		if got := num(tt.in); got != tt.want {
			t.Errorf("num(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func assertWellFormed(t *testing.T, doc string) {
	t.Helper()
	d := xml.NewDecoder(strings.NewReader(doc))
	for {
		_, err := d.Token()
		if err == io.EOF {
			return
		}
		if err != nil {
			t.Fatalf("document is not well-formed XML: %v\n%s", err, doc)
		}
	}
}
