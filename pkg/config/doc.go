// Package config loads the service configuration from an optional YAML
// file and METACAT_* environment variables, with env taking precedence.
package config
