// Package config defines the server configuration.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Startup validation
//   - sanitize.go: Secret masking for the startup log
//
// Configuration is loaded via internal/infra/confloader. Key segments are
// single words so every key can also be set from the environment.
package config
