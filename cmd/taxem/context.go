package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"taxem/internal/config"
	"taxem/internal/logging"
)

type commandContext struct {
	configFlag    *string
	logLevelFlag  *string
	logFormatFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag, logFormatFlag *string) *commandContext {
	return &commandContext{
		configFlag:    configFlag,
		logLevelFlag:  logLevelFlag,
		logFormatFlag: logFormatFlag,
	}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// logger builds a logger writing to the command's stderr. Flag overrides win
// over the configured level and format.
func (c *commandContext) logger(cmd *cobra.Command) (*slog.Logger, error) {
	settings := config.Default()
	if cfg, err := c.ensureConfig(); err == nil && cfg != nil {
		settings = *cfg
	}
	if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
		settings.Logging.Level = *c.logLevelFlag
	}
	if c.logFormatFlag != nil && strings.TrimSpace(*c.logFormatFlag) != "" {
		settings.Logging.Format = *c.logFormatFlag
	}
	logger, err := logging.NewFromConfig(&settings, cmd.ErrOrStderr())
	if err != nil && settings.Logging.File != "" {
		// An unusable log file must not stop a run; stderr still works.
		file := settings.Logging.File
		settings.Logging.File = ""
		fallback, fallbackErr := logging.NewFromConfig(&settings, cmd.ErrOrStderr())
		if fallbackErr == nil {
			logging.WarnWithContext(fallback, "log file unavailable", "log_file_unavailable",
				logging.String(logging.FieldPath, file),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "fix logging.file in the config"),
				logging.String(logging.FieldImpact, "logs are written to stderr only"),
			)
			return fallback, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
