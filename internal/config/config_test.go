package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/coloc-tools-mcp/internal/config"
	"github.com/ironsheep/coloc-tools-mcp/internal/pipeline"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "coloc.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultConfig(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(tempHome, ".config", "coloc", "config.toml"); resolved != want {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, want)
	}
	if cfg.Params() != pipeline.DefaultParams() {
		t.Fatalf("unexpected params: %+v", cfg.Params())
	}
	if cfg.Paths.ImageDir != "" || cfg.Paths.OutputDir != "" {
		t.Fatalf("expected empty paths by default, got %+v", cfg.Paths)
	}
	if cfg.Analysis.Workers != 1 {
		t.Fatalf("unexpected workers: %d", cfg.Analysis.Workers)
	}
	if err := cfg.ValidateBatch(); err == nil {
		t.Fatal("expected batch validation to require an image directory")
	}
}

func TestLoadSampleConfig(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(tempHome, "cfg", "coloc.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected sample at %q to be found, got %q exists=%v", path, resolved, exists)
	}
	if want := filepath.Join(tempHome, "data", "experiment", "images"); cfg.Paths.ImageDir != want {
		t.Fatalf("unexpected image dir: got %q want %q", cfg.Paths.ImageDir, want)
	}
	if cfg.Paths.Database != "" {
		t.Fatalf("expected no database, got %q", cfg.Paths.Database)
	}
	if got := cfg.ChannelName("C2"); got != "G3BP1" {
		t.Fatalf("unexpected channel name: %q", got)
	}
	if got := cfg.ChannelName("C9"); got != "C9" {
		t.Fatalf("unknown tags should name themselves, got %q", got)
	}
	if err := cfg.ValidateBatch(); err != nil {
		t.Fatalf("ValidateBatch returned error: %v", err)
	}

	layout := cfg.Layout()
	if layout.Roles.OverlapReference != "C2" || layout.Roles.Granule != "C3" {
		t.Fatalf("unexpected roles: %+v", layout.Roles)
	}
	if layout.GroupOf("treated_04.tif") != "treated" {
		t.Fatalf("expected group assignment from group_names, got %v", layout.Groups)
	}
}

func TestLoadNormalizesValues(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := writeConfig(t, `
[paths]
image_dir = "~/images"

[channels]
extensions = ["TIF", " .Png "]
prefix_length = 1
tags = [" A ", "B"]

[roles]
overlap_reference = "A"
overlap_query = "B"
granule = "B"
probe = "A"

[analysis]
overlap_threshold = 0.75
ring_radius = 5
workers = 4

[logging]
format = "JSON"
level = " Debug "
`)

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	images := filepath.Join(tempHome, "images")
	if cfg.Paths.ImageDir != images {
		t.Fatalf("unexpected image dir: %q", cfg.Paths.ImageDir)
	}
	if cfg.Paths.MaskDir != images {
		t.Fatalf("expected mask dir to default to image dir, got %q", cfg.Paths.MaskDir)
	}
	if want := filepath.Join(images, "coloc-results"); cfg.Paths.OutputDir != want {
		t.Fatalf("unexpected output dir: got %q want %q", cfg.Paths.OutputDir, want)
	}
	if strings.Join(cfg.Channels.Extensions, ",") != ".tif,.png" {
		t.Fatalf("unexpected extensions: %v", cfg.Channels.Extensions)
	}
	if strings.Join(cfg.Channels.Tags, ",") != "A,B" {
		t.Fatalf("unexpected tags: %v", cfg.Channels.Tags)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging: %+v", cfg.Logging)
	}

	params := cfg.Params()
	if params.OverlapThreshold != 0.75 || params.RingRadius != 5 || params.Alpha != 0.05 {
		t.Fatalf("unexpected params: %+v", params)
	}
	if opts := cfg.LoggingOptions(); opts.Format != "json" || opts.Level != "debug" {
		t.Fatalf("unexpected logging options: %+v", opts)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown field", "[analysis]\nradius = 3\n", "parse config"},
		{"duplicate tag", "[channels]\ntags = [\"C1\", \"C2\", \"C2\", \"C3\"]\n", "twice"},
		{"unknown role", "[roles]\nprobe = \"C7\"\n", "roles.probe"},
		{"threshold above one", "[analysis]\noverlap_threshold = 1.5\n", "overlap threshold"},
		{"zero radius", "[analysis]\nring_radius = 0\n", "ring radius"},
		{"alpha of one", "[analysis]\nalpha = 1.0\n", "alpha"},
		{"inverted size range", "[analysis]\nmin_area = 10\nmax_area = 5\n", "analysis"},
		{"no workers", "[analysis]\nworkers = 0\n", "analysis.workers"},
		{"zero prefix", "[channels]\nprefix_length = 0\n", "prefix_length"},
		{"tag longer than prefix", "[channels]\ntags = [\"C1\", \"C2\", \"C3\", \"C10\"]\n", "\"C10\" is 3 characters"},
		{"bad log format", "[logging]\nformat = \"xml\"\n", "logging.format"},
		{"bad log level", "[logging]\nlevel = \"loud\"\n", "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := config.Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists || resolved != path {
		t.Fatalf("expected missing file at %q, got %q exists=%v", path, resolved, exists)
	}
	if cfg.Channels.PrefixLength != 2 {
		t.Fatalf("expected defaults, got prefix length %d", cfg.Channels.PrefixLength)
	}
}
