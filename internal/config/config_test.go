package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		spec    string
		want    Language
		wantErr bool
	}{
		{spec: "Hindi:hi", want: Language{Name: "Hindi", Code: "hi"}},
		{spec: " Marathi : mr ", want: Language{Name: "Marathi", Code: "mr"}},
		{spec: "Tamil", want: Language{Name: "Tamil", Code: "ta"}},
		{spec: "Bengali:", want: Language{Name: "Bengali", Code: "be"}},
		{spec: "", wantErr: true},
		{spec: ":hi", wantErr: true},
		{spec: "X", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := ParseLanguage(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 6, cfg.BatchSize)
	assert.Equal(t, 10*time.Second, cfg.RequestDelay)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.BackoffBase)
	assert.Equal(t, DefaultFields, cfg.Fields)
	assert.Equal(t, []string{"hi", "mr"}, cfg.LanguageCodes())
	assert.Equal(t, BackendJSON, cfg.CheckpointBackend)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"no input", func(c *Config) { c.InputPath = "" }},
		{"no output", func(c *Config) { c.OutputPath = "" }},
		{"no checkpoint", func(c *Config) { c.CheckpointPath = "" }},
		{"bad backend", func(c *Config) { c.CheckpointBackend = "redis" }},
		{"no fields", func(c *Config) { c.Fields = nil }},
		{"duplicate field", func(c *Config) { c.Fields = []string{"details", "details"} }},
		{"empty field", func(c *Config) { c.Fields = []string{""} }},
		{"no languages", func(c *Config) { c.Languages = nil }},
		{"duplicate code", func(c *Config) {
			c.Languages = []Language{{Name: "Hindi", Code: "hi"}, {Name: "Hinglish", Code: "hi"}}
		}},
		{"zero batch", func(c *Config) { c.BatchSize = 0 }},
		{"zero attempts", func(c *Config) { c.MaxAttempts = 0 }},
		{"too many attempts", func(c *Config) { c.MaxAttempts = 30 }},
		{"negative delay", func(c *Config) { c.RequestDelay = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateMaxAttemptsLimit(t *testing.T) {
	cfg := Default()
	cfg.MaxAttempts = MaxAttemptsLimit
	assert.NoError(t, cfg.Validate())

	cfg.MaxAttempts = MaxAttemptsLimit + 1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "between 1 and 16")
}

func TestRequireAPIKey(t *testing.T) {
	cfg := Default()

	err := cfg.RequireAPIKey()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingAPIKey))

	cfg.APIKey = "test-key"
	assert.NoError(t, cfg.RequireAPIKey())
}
