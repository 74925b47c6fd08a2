// Package cli provides command-line interface setup and configuration
// for schemetrans. It handles flag parsing, command creation and
// configuration management using cobra and viper, and turns the result
// into a validated config.Config.
package cli
