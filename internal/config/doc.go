// Package config loads the TOML configuration of the coloc tools.
//
// Load resolves the file (an explicit path, ./coloc.toml, or
// ~/.config/coloc/config.toml), decodes it over Default(), normalizes paths
// and names, and validates the result. Params and Layout turn a Config into
// the values the pipeline package consumes.
package config
