// Package config loads, normalizes, and validates taxem configuration data.
//
// It supplies repository defaults for evidence thresholds and EM parameters,
// expands user paths (including tilde shortcuts), reads TOML files, and
// honours environment fallbacks such as TAXEM_HISTORY_PATH. The Config type
// centralizes every knob the classify pipeline and CLI need so that a single
// load produces sanitized values.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical log formats, and clear validation errors.
package config
