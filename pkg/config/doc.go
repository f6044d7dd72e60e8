// Package config holds the project configuration for draftkit.
//
// A [Config] is loaded from a YAML, TOML or JSON file on top of [Default],
// validated with [Config.Validate], and passed explicitly to every command.
// Key names are snake_case in every format.
package config
