package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/ironsheep/coloc-tools-mcp/internal/logging"
	"github.com/ironsheep/coloc-tools-mcp/internal/pipeline"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains input and output locations.
type Paths struct {
	ImageDir  string `toml:"image_dir"`
	MaskDir   string `toml:"mask_dir"`
	OutputDir string `toml:"output_dir"`
	Database  string `toml:"database"`
}

// Experiment describes the experiment being analyzed.
type Experiment struct {
	Name string `toml:"name"`

	// GroupNames assigns fields to experimental groups: a field belongs to
	// the first group whose name appears in its identifier.
	GroupNames []string `toml:"group_names"`
}

// Channels describes how image files are named.
type Channels struct {
	PrefixLength int               `toml:"prefix_length"`
	Extensions   []string          `toml:"extensions"`
	Tags         []string          `toml:"tags"`
	Names        map[string]string `toml:"names"`
	MaskSuffix   string            `toml:"mask_suffix"`
}

// Roles assigns channel tags to the parts of the analysis.
type Roles struct {
	OverlapReference string `toml:"overlap_reference"`
	OverlapQuery     string `toml:"overlap_query"`
	Granule          string `toml:"granule"`
	Probe            string `toml:"probe"`
}

// Analysis contains the numeric parameters of the per-field analysis.
type Analysis struct {
	OverlapThreshold float64 `toml:"overlap_threshold"`
	RingRadius       int     `toml:"ring_radius"`
	Alpha            float64 `toml:"alpha"`
	MinArea          int     `toml:"min_area"`
	MaxArea          int     `toml:"max_area"`
	Workers          int     `toml:"workers"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values.
//
// Configuration sections:
//   - Paths: image, mask and output locations and the results database
//   - Experiment: experiment name and group names
//   - Channels: file naming (tag prefix, extensions, mask suffix)
//   - Roles: which channel plays which part in the analysis
//   - Analysis: thresholds, ring radius, significance level, size range
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Experiment Experiment `toml:"experiment"`
	Channels   Channels   `toml:"channels"`
	Roles      Roles      `toml:"roles"`
	Analysis   Analysis   `toml:"analysis"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/coloc/config.toml")
}

// Load locates, parses, and validates a configuration file. It returns the
// config, the resolved path, and whether that file existed. A missing file
// yields the defaults.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("coloc.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// Params returns the per-field analysis parameters.
func (c *Config) Params() pipeline.Params {
	return pipeline.Params{
		OverlapThreshold: c.Analysis.OverlapThreshold,
		RingRadius:       c.Analysis.RingRadius,
		Alpha:            c.Analysis.Alpha,
		MinArea:          c.Analysis.MinArea,
		MaxArea:          c.Analysis.MaxArea,
	}
}

// Layout returns where a field's files are found.
func (c *Config) Layout() pipeline.Layout {
	return pipeline.Layout{
		ImageDir:   c.Paths.ImageDir,
		MaskDir:    c.Paths.MaskDir,
		MaskSuffix: c.Channels.MaskSuffix,
		Groups:     c.Experiment.GroupNames,
		Roles: pipeline.Roles{
			OverlapReference: c.Roles.OverlapReference,
			OverlapQuery:     c.Roles.OverlapQuery,
			Granule:          c.Roles.Granule,
			Probe:            c.Roles.Probe,
		},
	}
}

// LoggingOptions returns the logger settings.
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{Level: c.Logging.Level, Format: c.Logging.Format}
}

// ChannelName returns the human name of a channel tag, or the tag itself.
func (c *Config) ChannelName(tag string) string {
	if name := strings.TrimSpace(c.Channels.Names[tag]); name != "" {
		return name
	}
	return tag
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
