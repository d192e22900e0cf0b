package config

const (
	defaultConfigPath           = "~/.config/taxem/config.toml"
	projectConfigName           = "taxem.toml"
	defaultHistoryFallback      = "~/.local/share/taxem/history.db"
	defaultMinPercentIdentity   = 70.0
	defaultMinPercentSimilarity = 80.0
	defaultMinConfidence        = 0.1
	defaultMaxIterations        = 50
	defaultConvergence          = 1e-6
	defaultNoveltyThreshold     = 0.5
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Thresholds: Thresholds{
			MinPercentIdentity:   defaultMinPercentIdentity,
			MinPercentSimilarity: defaultMinPercentSimilarity,
			MinConfidence:        defaultMinConfidence,
		},
		EM: EM{
			MaxIterations:        defaultMaxIterations,
			ConvergenceThreshold: defaultConvergence,
			NoveltyThreshold:     defaultNoveltyThreshold,
		},
		History: History{
			Path: defaultHistoryPath(),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
