// Package config provides centralized configuration management for the
// ChainPilot runtime. All secrets and tunables come from environment
// variables (optionally seeded from a .env file), while the supported
// network catalog is described in YAML.
package config
