package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/ironsheep/coloc-tools-mcp/internal/config"
	"github.com/ironsheep/coloc-tools-mcp/internal/logging"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
			if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
				c.configErr = fmt.Errorf("--log-level: %w", err)
				return
			}
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// logger builds a logger writing to the command's error stream.
func (c *commandContext) logger(cmd *cobra.Command) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	opts := cfg.LoggingOptions()
	opts.Output = cmd.ErrOrStderr()
	return logging.New(opts)
}

// imageDir returns the directory argument when given, else the configured
// image directory.
func (c *commandContext) imageDir(args []string) (string, error) {
	if len(args) > 0 {
		return config.ExpandPath(args[0])
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	if err := cfg.ValidateBatch(); err != nil {
		return "", err
	}
	return cfg.Paths.ImageDir, nil
}
