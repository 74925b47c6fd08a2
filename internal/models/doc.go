// Package models lists the text generation models available to the
// configured API key, so users can pick a value for --model.
package models
