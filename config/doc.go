// Package config loads and validates the library configuration.
//
// Configuration is YAML with strict ${VAR} environment expansion applied to
// the file contents before decoding: a referenced variable that is missing
// from the environment is an error, not an empty string.
package config
