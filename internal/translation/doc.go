// Package translation turns one batch of scheme records into translated rows
// for one target language. It builds the prompt, calls the language model
// provider, strips markdown fences from the reply and parses the JSON array
// it contains. Rate limits are retried with exponential backoff; anything
// else ends the attempt with a tagged *Failure.
package translation
