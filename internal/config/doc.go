// Package config holds the explicit run configuration for schemetrans. A
// Config is built once at startup from flags, config file and environment
// and then passed by reference to the pipeline and the translation invoker.
package config
