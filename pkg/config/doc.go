// Package config manages supervisor configuration: an optional YAML config
// file overridden by GANTRY_* environment variables, with per-attribute
// source tracking so `gantryctl configuration show` can report where each
// value came from.
package config
