package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/subcommands"

	"github.com/Faultbox/dem2mesh/internal/config"
	"github.com/Faultbox/dem2mesh/internal/pipeline"
	"github.com/Faultbox/dem2mesh/internal/terrain"
	"github.com/Faultbox/dem2mesh/pkg/dem"
)

func TestCollectTiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.png", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	single := filepath.Join(t.TempDir(), "single.png")
	if err := os.WriteFile(single, nil, 0644); err != nil {
		t.Fatal(err)
	}

	got, err := collectTiles([]string{dir, single})
	if err != nil {
		t.Fatalf("collectTiles failed: %v", err)
	}
	want := []string{filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png"), single}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("collectTiles() mismatch (-want +got):\n%s", diff)
	}

	if _, err := collectTiles([]string{t.TempDir()}); err == nil {
		t.Error("expected error for a directory without tiles")
	}
	if _, err := collectTiles([]string{filepath.Join(dir, "missing")}); err == nil {
		t.Error("expected error for a missing path")
	}
}

func TestMeshCmdApply(t *testing.T) {
	cfg := config.Default()

	tests := []struct {
		name       string
		cmd        meshCmd
		wantParams terrain.TileParams
		wantFormat string
	}{
		{"defaults", meshCmd{segments: -1}, terrain.TileParams{Size: 10, Segments: 128}, "json"},
		{"overrides", meshCmd{size: 2, segments: 0, format: "obj"}, terrain.TileParams{Size: 2, Segments: 0}, "obj"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, format := tt.cmd.apply(cfg)
			if params != tt.wantParams {
				t.Errorf("apply() params = %+v, want %+v", params, tt.wantParams)
			}
			if format != tt.wantFormat {
				t.Errorf("apply() format = %q, want %q", format, tt.wantFormat)
			}
		})
	}
}

func TestBatchConvert(t *testing.T) {
	data, err := dem.Encode(dem.NewHeightField(dem.TileWidth, dem.TileHeight, 0))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	tile := filepath.Join(t.TempDir(), "14_8190_5447.png")
	if err := os.WriteFile(tile, data, 0644); err != nil {
		t.Fatal(err)
	}

	g, err := pipeline.NewDefault(config.Default(), nil)
	if err != nil {
		t.Fatalf("NewDefault failed: %v", err)
	}
	outDir := t.TempDir()
	n, err := (&batchCmd{}).convert(g, tile, outDir, "obj", terrain.TileParams{Size: 10, Segments: 4})
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(outDir, "14_8190_5447.obj"))
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	if info.Size() != n {
		t.Errorf("reported %d bytes, file has %d", n, info.Size())
	}
}

func TestRun(t *testing.T) {
	if got := run("ok", func() error { return nil }); got != subcommands.ExitSuccess {
		t.Errorf("run() = %v, want success", got)
	}
	if got := run("fail", func() error { return errors.New("boom") }); got != subcommands.ExitFailure {
		t.Errorf("run() = %v, want failure", got)
	}
	if got := run("panic", func() error { panic("boom") }); got != subcommands.ExitFailure {
		t.Errorf("run() = %v, want failure after panic", got)
	}
}

func TestConfigFrom(t *testing.T) {
	cfg := config.Default()
	cfg.Tile.Segments = 7
	if got := configFrom([]any{"x", cfg}); got != cfg {
		t.Error("configFrom did not return the passed config")
	}
	if got := configFrom(nil); got.Tile.Segments != config.Default().Tile.Segments {
		t.Error("configFrom(nil) should fall back to defaults")
	}
}
