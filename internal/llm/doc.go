// Package llm wraps the remote language model services used for
// translation behind a single Provider interface.
//
// Gemini (google.golang.org/genai) is the default backend, OpenAI
// (github.com/sashabaranov/go-openai) the alternative. Providers are
// optionally wrapped in a circuit breaker so a service that keeps failing
// is not hammered for the rest of the run.
package llm
