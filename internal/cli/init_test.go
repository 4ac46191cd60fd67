package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/doublediamond/pkg/config"
	"github.com/matzehuels/doublediamond/pkg/errors"
)

func TestRunInit(t *testing.T) {
	for _, name := range []string{"plan.toml", "plan.yaml", "plan.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := runInit(context.Background(), path, false); err != nil {
				t.Fatalf("runInit() error = %v", err)
			}

			in, err := config.Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if diff := cmp.Diff(config.DefaultInput(), in); diff != "" {
				t.Errorf("written config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRunInitExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.toml")
	if err := os.WriteFile(path, []byte("title = \"Mine\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := runInit(context.Background(), path, false); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Fatalf("runInit() over existing file error = %v, want INVALID_PATH", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "title = \"Mine\"\n" {
		t.Error("existing file modified without --force")
	}

	if err := runInit(context.Background(), path, true); err != nil {
		t.Fatalf("runInit(force) error = %v", err)
	}
	in, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if in[config.KeyTitleText] != config.DefaultTitleText {
		t.Errorf("title = %q after --force", in[config.KeyTitleText])
	}
}

func TestRunInitUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.ini")
	if err := runInit(context.Background(), path, false); err == nil {
		t.Error("runInit() with .ini should fail")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file created despite unknown format")
	}
}
