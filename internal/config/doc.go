// Package config loads doccontext settings from a TOML file
// (~/.doccontext/config.toml by default) with environment overrides.
package config
