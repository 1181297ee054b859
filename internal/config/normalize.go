package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeChannels()
	c.normalizeRoles()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.ImageDir, err = expandPath(strings.TrimSpace(c.Paths.ImageDir)); err != nil {
		return fmt.Errorf("paths.image_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.MaskDir) == "" {
		c.Paths.MaskDir = c.Paths.ImageDir
	}
	if c.Paths.MaskDir, err = expandPath(strings.TrimSpace(c.Paths.MaskDir)); err != nil {
		return fmt.Errorf("paths.mask_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" && c.Paths.ImageDir != "" {
		c.Paths.OutputDir = filepath.Join(c.Paths.ImageDir, defaultOutputSubdir)
	}
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.Database, err = expandPath(strings.TrimSpace(c.Paths.Database)); err != nil {
		return fmt.Errorf("paths.database: %w", err)
	}
	return nil
}

func (c *Config) normalizeChannels() {
	for i, tag := range c.Channels.Tags {
		c.Channels.Tags[i] = strings.TrimSpace(tag)
	}
	for i, ext := range c.Channels.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Channels.Extensions[i] = ext
	}
	c.Channels.MaskSuffix = strings.TrimSpace(c.Channels.MaskSuffix)
	if c.Channels.Names == nil {
		c.Channels.Names = map[string]string{}
	}
	for i, name := range c.Experiment.GroupNames {
		c.Experiment.GroupNames[i] = strings.TrimSpace(name)
	}
}

func (c *Config) normalizeRoles() {
	c.Roles.OverlapReference = strings.TrimSpace(c.Roles.OverlapReference)
	c.Roles.OverlapQuery = strings.TrimSpace(c.Roles.OverlapQuery)
	c.Roles.Granule = strings.TrimSpace(c.Roles.Granule)
	c.Roles.Probe = strings.TrimSpace(c.Roles.Probe)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
