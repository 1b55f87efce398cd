package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/tactilab/dotplate/pkg/pipeline"
)

const testDefinition = `
[[row]]
braille = "⠁"
indicator = "a"

[surface]
kind = "flat"
width = 90
height = 50
thickness = 2
`

func writeDefinition(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "plate.toml")
	if err := os.WriteFile(path, []byte(testDefinition), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunGenerateJSON(t *testing.T) {
	dir := t.TempDir()
	input := writeDefinition(t, dir)

	c := New(io.Discard, LogInfo)
	opts := &generateOpts{cache: cacheFlags{noCache: true}}

	if err := c.runGenerate(context.Background(), input, opts); err != nil {
		t.Fatalf("runGenerate() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "plate.json"))
	if err != nil {
		t.Fatalf("expected json artifact: %v", err)
	}
	if len(data) == 0 {
		t.Error("json artifact is empty")
	}
}

func TestRunGenerateSTLWithOutputOverride(t *testing.T) {
	dir := t.TempDir()
	input := writeDefinition(t, dir)
	out := filepath.Join(dir, "card")

	c := New(io.Discard, LogInfo)
	opts := &generateOpts{
		output:   out,
		formats:  "json,stl",
		segments: 12,
		cache:    cacheFlags{noCache: true},
	}

	if err := c.runGenerate(context.Background(), input, opts); err != nil {
		t.Fatalf("runGenerate() error = %v", err)
	}

	stl, err := os.ReadFile(out + ".stl")
	if err != nil {
		t.Fatalf("expected stl artifact: %v", err)
	}
	if len(stl) <= 84 {
		t.Errorf("stl artifact too small: %d bytes", len(stl))
	}
}

func TestRunGenerateMissingDefinition(t *testing.T) {
	c := New(io.Discard, LogInfo)
	opts := &generateOpts{cache: cacheFlags{noCache: true}}

	if err := c.runGenerate(context.Background(), "/nonexistent/plate.toml", opts); err == nil {
		t.Error("expected error for missing definition file")
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		output string
		input  string
		want   string
	}{
		{"", "plate.toml", "plate"},
		{"", "dir/card.toml", "dir/card"},
		{"out", "plate.toml", "out"},
		{"out.stl", "plate.toml", "out"},
		{"out.json", "plate.toml", "out"},
		{"out.bin", "plate.toml", "out.bin"},
	}

	for _, tt := range tests {
		if got := basePath(tt.output, tt.input); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
		}
	}
}

func TestParseFormats(t *testing.T) {
	if got := parseFormats(""); len(got) != 1 || got[0] != pipeline.FormatJSON {
		t.Errorf("parseFormats(\"\") = %v, want [json]", got)
	}
	if got := parseFormats("json,stl"); len(got) != 2 || got[1] != pipeline.FormatSTL {
		t.Errorf("parseFormats(\"json,stl\") = %v", got)
	}
}

func TestRootCommandStructure(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	want := map[string]bool{"generate": false, "serve": false, "cache": false, "completion": false}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("root command is missing subcommand %q", name)
		}
	}
}
