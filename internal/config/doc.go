// Package config loads process settings from the environment and run plans
// from YAML files.
package config
