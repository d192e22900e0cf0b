package config

import (
	"errors"
	"math"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateThresholds(); err != nil {
		return err
	}
	if err := c.validateEM(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateThresholds() error {
	if !inRange(c.Thresholds.MinPercentIdentity, 0, 100) {
		return errors.New("thresholds.min_percent_identity must be between 0 and 100")
	}
	if !inRange(c.Thresholds.MinPercentSimilarity, 0, 100) {
		return errors.New("thresholds.min_percent_similarity must be between 0 and 100")
	}
	if !inRange(c.Thresholds.MinConfidence, 0, 1) {
		return errors.New("thresholds.min_confidence must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateEM() error {
	if c.EM.MaxIterations <= 0 {
		return errors.New("em.max_iterations must be positive")
	}
	if math.IsNaN(c.EM.ConvergenceThreshold) || c.EM.ConvergenceThreshold <= 0 {
		return errors.New("em.convergence_threshold must be positive")
	}
	if !inRange(c.EM.NoveltyThreshold, 0, 1) {
		return errors.New("em.novelty_threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateHistory() error {
	if c.History.Enabled && strings.TrimSpace(c.History.Path) == "" {
		return errors.New("history.path must be set when history.enabled is true")
	}
	return nil
}

func inRange(value, lo, hi float64) bool {
	return !math.IsNaN(value) && value >= lo && value <= hi
}
