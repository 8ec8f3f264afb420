// Package config provides configuration structures and utilities for PhishGuard.
//
// Settings are layered, lowest precedence first: built-in defaults
// (NewConfig), the YAML configuration file (.phishguard), a .env file and
// PHISHGUARD_* environment variables, and finally command-line flags.
package config
