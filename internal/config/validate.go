package config

import (
	"errors"
	"fmt"

	"github.com/ironsheep/coloc-tools-mcp/internal/channels"
	"github.com/ironsheep/coloc-tools-mcp/internal/logging"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateChannels(); err != nil {
		return err
	}
	if err := c.validateRoles(); err != nil {
		return err
	}
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

// ValidateBatch additionally checks the settings a directory batch needs.
func (c *Config) ValidateBatch() error {
	if c.Paths.ImageDir == "" {
		return errors.New("paths.image_dir must be set (create a config with 'coloc config init')")
	}
	return nil
}

func (c *Config) validateChannels() error {
	if c.Channels.PrefixLength < 1 {
		return errors.New("channels.prefix_length must be at least 1")
	}
	if len(c.Channels.Tags) == 0 {
		return errors.New("channels.tags must list at least one channel")
	}
	seen := make(map[string]bool, len(c.Channels.Tags))
	for _, tag := range c.Channels.Tags {
		if tag == "" {
			return errors.New("channels.tags must not contain empty tags")
		}
		if seen[tag] {
			return fmt.Errorf("channels.tags lists %q twice", tag)
		}
		seen[tag] = true
	}
	if err := channels.CheckTagLengths(c.Channels.Tags, c.Channels.PrefixLength); err != nil {
		return fmt.Errorf("channels.tags: %w", err)
	}
	for _, ext := range c.Channels.Extensions {
		if ext == "" || ext == "." {
			return errors.New("channels.extensions must not contain empty extensions")
		}
	}
	if c.Channels.MaskSuffix == "" {
		return errors.New("channels.mask_suffix must be set")
	}
	return nil
}

func (c *Config) validateRoles() error {
	known := make(map[string]bool, len(c.Channels.Tags))
	for _, tag := range c.Channels.Tags {
		known[tag] = true
	}
	roles := []struct {
		key, tag string
	}{
		{"roles.overlap_reference", c.Roles.OverlapReference},
		{"roles.overlap_query", c.Roles.OverlapQuery},
		{"roles.granule", c.Roles.Granule},
		{"roles.probe", c.Roles.Probe},
	}
	for _, r := range roles {
		if !known[r.tag] {
			return fmt.Errorf("%s %q is not one of channels.tags %v", r.key, r.tag, c.Channels.Tags)
		}
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	if err := c.Params().Validate(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	if c.Analysis.Workers < 1 {
		return errors.New("analysis.workers must be at least 1")
	}
	return nil
}
