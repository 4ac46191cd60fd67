package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/doublediamond/pkg/config"
	"github.com/matzehuels/doublediamond/pkg/errors"
)

// writeConfig writes a config file into a fresh temp dir and returns its path.
func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testCLI(t *testing.T) (*CLI, context.Context) {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	c := New(io.Discard, LogInfo)
	return c, withLogger(context.Background(), c.Logger)
}

func TestOutputPaths(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	tests := []struct {
		name    string
		output  string
		prefix  string
		formats []string
		want    map[string]string
	}{
		{
			name:    "export name",
			formats: []string{"svg"},
			want:    map[string]string{"svg": "double-diamond-1700000000123.svg"},
		},
		{
			name:    "export name with prefix",
			prefix:  "roadmap",
			formats: []string{"svg", "png"},
			want: map[string]string{
				"svg": "roadmap-1700000000123.svg",
				"png": "roadmap-1700000000123.png",
			},
		},
		{
			name:    "single format verbatim",
			output:  "out/plan.image",
			formats: []string{"png"},
			want:    map[string]string{"png": "out/plan.image"},
		},
		{
			name:    "multiple formats strip extension",
			output:  "out/plan.svg",
			formats: []string{"svg", "json"},
			want:    map[string]string{"svg": "out/plan.svg", "json": "out/plan.json"},
		},
		{
			name:    "multiple formats keep unknown extension",
			output:  "out/plan.v2",
			formats: []string{"svg", "png"},
			want:    map[string]string{"svg": "out/plan.v2.svg", "png": "out/plan.v2.png"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := outputPaths(tt.output, tt.prefix, tt.formats, now)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("outputPaths() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApplySets(t *testing.T) {
	in := config.DefaultInput()
	err := applySets(in, []string{"titleText=Q3 Roadmap", "p1_color=#a0c4ff", "subText=", " gap =a=b"})
	if err != nil {
		t.Fatalf("applySets() error = %v", err)
	}

	want := config.DefaultInput()
	want[config.KeyTitleText] = "Q3 Roadmap"
	want[config.PhaseColorKey(0)] = "#a0c4ff"
	want[config.KeySubText] = ""
	want[config.KeyGap] = "a=b"
	if diff := cmp.Diff(want, in); diff != "" {
		t.Errorf("input mismatch (-want +got):\n%s", diff)
	}
}

func TestApplySetsErrors(t *testing.T) {
	tests := []struct {
		set  string
		code errors.Code
	}{
		{"titleText", errors.ErrCodeInvalidInput},
		{"colour=red", errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		err := applySets(config.Input{}, []string{tt.set})
		if !errors.Is(err, tt.code) {
			t.Errorf("applySets(%q) error = %v, want %s", tt.set, err, tt.code)
		}
	}
}

func TestConfigSourceLoad(t *testing.T) {
	path := writeConfig(t, "plan.yaml", "title: Team Plan\nwidth: 1000\nphases:\n  - label: Research\n")

	src := configSource{file: path, sets: []string{"height=700"}}
	in, err := src.load()
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}

	cfg := in.Resolve()
	if cfg.TitleText != "Team Plan" || cfg.Width != 1000 || cfg.Height != 700 {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.Phases[0].Label != "Research" {
		t.Errorf("phase 1 label = %q, want Research", cfg.Phases[0].Label)
	}
	// Fields missing from the file keep their defaults.
	if cfg.Phases[3].Label != "Deliver" || cfg.Margin != config.DefaultMargin {
		t.Errorf("defaults not kept: %+v", cfg)
	}
}

func TestConfigSourceLoadDefaultFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	src := configSource{}
	in, err := src.load()
	if err != nil {
		t.Fatalf("load() without file error = %v", err)
	}
	if diff := cmp.Diff(config.DefaultInput(), in); diff != "" {
		t.Errorf("input mismatch (-want +got):\n%s", diff)
	}

	if err := os.WriteFile(defaultConfigFile, []byte("title = \"From cwd\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	in, err = src.load()
	if err != nil {
		t.Fatal(err)
	}
	if in[config.KeyTitleText] != "From cwd" {
		t.Errorf("title = %q, want value from %s", in[config.KeyTitleText], defaultConfigFile)
	}
}

func TestConfigSourceLoadMissingFile(t *testing.T) {
	src := configSource{file: filepath.Join(t.TempDir(), "nope.toml")}
	if _, err := src.load(); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("load() error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestRunRender(t *testing.T) {
	c, ctx := testCLI(t)
	out := filepath.Join(t.TempDir(), "nested", "plan")

	opts := renderOpts{
		source:  configSource{file: writeConfig(t, "plan.toml", "title = \"A & B\"\n")},
		output:  out,
		formats: "svg,json",
		prefix:  "double-diamond",
		scale:   1,
	}
	if err := c.runRender(ctx, &opts); err != nil {
		t.Fatalf("runRender() error = %v", err)
	}

	svg, err := os.ReadFile(out + ".svg")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(svg), "<?xml") {
		t.Error("exported svg should carry the XML declaration")
	}
	if !strings.Contains(string(svg), ">A &amp; B<") {
		t.Error("title not escaped in svg")
	}
	if _, err := os.Stat(out + ".json"); err != nil {
		t.Errorf("json not written: %v", err)
	}
}

func TestRunRenderErrors(t *testing.T) {
	c, ctx := testCLI(t)

	tests := []struct {
		name string
		opts renderOpts
		code errors.Code
	}{
		{"bad format", renderOpts{formats: "pdf"}, errors.ErrCodeInvalidFormat},
		{"stdout with two formats", renderOpts{formats: "svg,png", stdout: true}, errors.ErrCodeInvalidInput},
		{"bad prefix", renderOpts{prefix: "../x"}, errors.ErrCodeInvalidInput},
		{"directory output", renderOpts{output: "out/"}, errors.ErrCodeInvalidPath},
		{"unknown set", renderOpts{source: configSource{sets: []string{"size=3"}}}, errors.ErrCodeInvalidConfig},
		{"bad scale", renderOpts{formats: "png", scale: 50, noCache: true}, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			if err := c.runRender(ctx, &tt.opts); !errors.Is(err, tt.code) {
				t.Errorf("runRender() error = %v, want %s", err, tt.code)
			}
		})
	}
}
