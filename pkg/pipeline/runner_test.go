package pipeline

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/doublediamond/pkg/cache"
	"github.com/matzehuels/doublediamond/pkg/config"
	"github.com/matzehuels/doublediamond/pkg/layout"
)

// memCache is an in-memory cache that counts operations.
type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	gets    int
	sets    int
	failGet bool
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.failGet {
		return nil, false, errors.New("backend down")
	}
	d, ok := c.data[key]
	return d, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.data[key] = data
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Close() error { return nil }

var _ cache.Cache = (*memCache)(nil)

func quietLogger() *log.Logger {
	return log.NewWithOptions(&bytes.Buffer{}, log.Options{})
}

func TestGenerate(t *testing.T) {
	r := NewRunner(nil, nil, quietLogger())
	cfg := config.Default()

	res, err := r.Generate(context.Background(), cfg, Options{Formats: []string{"svg", "json"}, Prolog: true})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	svg := string(res.Artifacts[FormatSVG])
	if !strings.HasPrefix(svg, "<?xml") {
		t.Errorf("svg should start with XML declaration, got %.40q", svg)
	}
	if !strings.Contains(svg, ">Double Diamond Design Model<") {
		t.Error("svg missing title")
	}
	if len(res.Artifacts[FormatJSON]) == 0 {
		t.Error("json artifact missing")
	}
	if _, ok := res.Artifacts[FormatPNG]; ok {
		t.Error("png rendered without being requested")
	}
	if res.Geometry.CY != layout.Compute(cfg).CY || len(res.Geometry.Warnings) != 0 {
		t.Errorf("Geometry = %+v, want default layout without warnings", res.Geometry)
	}
	if res.ConfigHash != ConfigHash(cfg) {
		t.Errorf("ConfigHash = %s, want %s", res.ConfigHash, ConfigHash(cfg))
	}
	if res.Stats.Bytes != len(svg)+len(res.Artifacts[FormatJSON]) {
		t.Errorf("Stats.Bytes = %d", res.Stats.Bytes)
	}
	if res.CacheHit {
		t.Error("NullCache run reported a cache hit")
	}
}

func TestGenerateUsesCache(t *testing.T) {
	mc := newMemCache()
	r := NewRunner(mc, nil, quietLogger())
	cfg := config.Default()
	opts := Options{Formats: []string{"svg", "png"}, Scale: 1}

	first, err := r.Generate(context.Background(), cfg, opts)
	if err != nil {
		t.Fatalf("first Generate() error = %v", err)
	}
	if first.CacheHit || mc.sets != 2 {
		t.Fatalf("first run: CacheHit = %v, sets = %d, want miss and 2 sets", first.CacheHit, mc.sets)
	}

	second, err := r.Generate(context.Background(), cfg, opts)
	if err != nil {
		t.Fatalf("second Generate() error = %v", err)
	}
	if !second.CacheHit || mc.sets != 2 {
		t.Errorf("second run: CacheHit = %v, sets = %d, want hit and no new sets", second.CacheHit, mc.sets)
	}
	if !bytes.Equal(first.Artifacts[FormatPNG], second.Artifacts[FormatPNG]) {
		t.Error("cached png differs from rendered png")
	}

	// Refresh bypasses reads but still writes.
	opts.Refresh = true
	gets := mc.gets
	third, err := r.Generate(context.Background(), cfg, opts)
	if err != nil {
		t.Fatalf("refresh Generate() error = %v", err)
	}
	if third.CacheHit || mc.gets != gets || mc.sets != 4 {
		t.Errorf("refresh run: CacheHit = %v, gets +%d, sets = %d", third.CacheHit, mc.gets-gets, mc.sets)
	}

	// A different configuration is a different key.
	cfg.TitleText = "Other"
	other, err := r.Generate(context.Background(), cfg, Options{Formats: []string{"svg"}})
	if err != nil {
		t.Fatal(err)
	}
	if other.CacheHit {
		t.Error("changed configuration should miss")
	}
}

func TestGenerateCacheErrorIsMiss(t *testing.T) {
	mc := newMemCache()
	mc.failGet = true
	var logs bytes.Buffer
	r := NewRunner(mc, nil, log.NewWithOptions(&logs, log.Options{}))

	res, err := r.Generate(context.Background(), config.Default(), Options{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(res.Artifacts[FormatSVG]) == 0 {
		t.Error("svg not rendered after cache failure")
	}
	if !strings.Contains(logs.String(), "cache read failed") {
		t.Errorf("cache failure not logged: %s", logs.String())
	}
}

func TestGenerateLogsWarnings(t *testing.T) {
	var logs bytes.Buffer
	r := NewRunner(nil, nil, log.NewWithOptions(&logs, log.Options{}))
	cfg := config.Default()
	cfg.Gap = -50

	res, err := r.Generate(context.Background(), cfg, Options{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if res.Stats.Warnings != 1 || res.Geometry.Warnings[0].Code != layout.WarnNegativeGap {
		t.Errorf("Warnings = %v, want one NEGATIVE_GAP", res.Geometry.Warnings)
	}
	if !strings.Contains(logs.String(), "NEGATIVE_GAP") {
		t.Errorf("warning not logged: %s", logs.String())
	}
}

func TestGenerateInvalidOptions(t *testing.T) {
	r := NewRunner(nil, nil, quietLogger())
	if _, err := r.Generate(context.Background(), config.Default(), Options{Formats: []string{"pdf"}}); err == nil {
		t.Error("Generate() with pdf should fail")
	}
	if _, err := r.Generate(context.Background(), config.Default(), Options{Scale: -1}); err == nil {
		t.Error("Generate() with negative scale should fail")
	}
}

func TestGeneratePNGFailure(t *testing.T) {
	r := NewRunner(nil, nil, quietLogger())
	cfg := config.Default()
	cfg.Width = 0

	if _, err := r.Generate(context.Background(), cfg, Options{Formats: []string{"png"}}); err == nil {
		t.Error("Generate() of empty canvas png should fail")
	}
	// SVG of the same configuration never fails.
	if _, err := r.Generate(context.Background(), cfg, Options{Formats: []string{"svg"}}); err != nil {
		t.Errorf("Generate() svg error = %v", err)
	}
}

func TestGenerateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(nil, nil, quietLogger())
	_, err := r.Generate(ctx, config.Default(), Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Generate() error = %v, want context.Canceled", err)
	}
}
