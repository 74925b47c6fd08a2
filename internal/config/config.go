package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Supported checkpoint backends
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Default checkpoint locations per backend
const (
	DefaultCheckpointPath       = "checkpoint.json"
	DefaultSQLiteCheckpointPath = "checkpoint.db"
)

// MaxAttemptsLimit bounds the requests per batch and language. Later waits
// are capped anyway, more attempts only stretch a halt over days.
const MaxAttemptsLimit = 16

// ErrMissingAPIKey is returned when no credential for the provider is configured
var ErrMissingAPIKey = errors.New("API key not found")

// DefaultFields are the scheme columns translated when none are configured
var DefaultFields = []string{"scheme_name", "details", "benefits", "eligibility", "application", "documents"}

// DefaultLanguages are the target languages used when none are configured
var DefaultLanguages = []string{"Hindi:hi", "Marathi:mr"}

// Language is a translation target. Name goes into the prompt, Code becomes
// the output column suffix.
type Language struct {
	Name string
	Code string
}

func (l Language) String() string {
	return fmt.Sprintf("%s (%s)", l.Name, l.Code)
}

// ParseLanguage parses "Name:code". A bare name uses its lowercased first two
// letters as code.
func ParseLanguage(spec string) (Language, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Language{}, fmt.Errorf("empty language")
	}

	name, code, found := strings.Cut(spec, ":")
	name = strings.TrimSpace(name)
	code = strings.TrimSpace(code)
	if name == "" {
		return Language{}, fmt.Errorf("language %q has no name", spec)
	}
	if !found || code == "" {
		runes := []rune(strings.ToLower(name))
		if len(runes) < 2 {
			return Language{}, fmt.Errorf("cannot derive a code for language %q", spec)
		}
		code = string(runes[:2])
	}

	return Language{Name: name, Code: code}, nil
}

// ParseLanguages parses a list of "Name:code" specs
func ParseLanguages(specs []string) ([]Language, error) {
	langs := make([]Language, 0, len(specs))
	for _, spec := range specs {
		lang, err := ParseLanguage(spec)
		if err != nil {
			return nil, err
		}
		langs = append(langs, lang)
	}
	return langs, nil
}

// Config is the immutable configuration of one translation run
type Config struct {
	InputPath         string
	OutputPath        string
	CheckpointPath    string
	CheckpointBackend string

	Fields    []string
	Languages []Language

	BatchSize    int
	RequestDelay time.Duration
	MaxAttempts  int
	BackoffBase  time.Duration

	Provider string
	Model    string
	APIKey   string
	Timeout  time.Duration

	BreakerThreshold int
}

// Default returns the configuration the tool was tuned with: small batches
// and a generous delay keep a free-tier key at roughly 5-6 requests a minute.
func Default() *Config {
	langs, _ := ParseLanguages(DefaultLanguages)
	return &Config{
		InputPath:         "schemes.csv",
		OutputPath:        "schemes_translated.csv",
		CheckpointPath:    DefaultCheckpointPath,
		CheckpointBackend: BackendJSON,
		Fields:            append([]string(nil), DefaultFields...),
		Languages:         langs,
		BatchSize:         6,
		RequestDelay:      10 * time.Second,
		MaxAttempts:       5,
		BackoffBase:       30 * time.Second,
		Provider:          "gemini",
		Timeout:           2 * time.Minute,
		BreakerThreshold:  3,
	}
}

// LanguageCodes returns the configured language codes in order
func (c *Config) LanguageCodes() []string {
	codes := make([]string, len(c.Languages))
	for i, l := range c.Languages {
		codes[i] = l.Code
	}
	return codes
}

// Validate checks the run parameters. It does not look at the API key, see
// RequireAPIKey.
func (c *Config) Validate() error {
	if c.InputPath == "" {
		return fmt.Errorf("input path is required")
	}
	if c.OutputPath == "" {
		return fmt.Errorf("output path is required")
	}
	if c.CheckpointPath == "" {
		return fmt.Errorf("checkpoint path is required")
	}
	if c.CheckpointBackend != BackendJSON && c.CheckpointBackend != BackendSQLite {
		return fmt.Errorf("unknown checkpoint backend: %s", c.CheckpointBackend)
	}
	if len(c.Fields) == 0 {
		return fmt.Errorf("at least one field to translate is required")
	}
	if len(c.Languages) == 0 {
		return fmt.Errorf("at least one target language is required")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.MaxAttempts <= 0 || c.MaxAttempts > MaxAttemptsLimit {
		return fmt.Errorf("max attempts must be between 1 and %d, got %d", MaxAttemptsLimit, c.MaxAttempts)
	}
	if c.RequestDelay < 0 || c.BackoffBase < 0 {
		return fmt.Errorf("delays must not be negative")
	}

	seenFields := make(map[string]bool, len(c.Fields))
	for _, f := range c.Fields {
		if f == "" {
			return fmt.Errorf("empty field name")
		}
		if seenFields[f] {
			return fmt.Errorf("duplicate field: %s", f)
		}
		seenFields[f] = true
	}

	seenCodes := make(map[string]bool, len(c.Languages))
	for _, l := range c.Languages {
		if seenCodes[l.Code] {
			return fmt.Errorf("duplicate language code: %s", l.Code)
		}
		seenCodes[l.Code] = true
	}

	return nil
}

// RequireAPIKey fails when no credential is configured. A missing key is
// fatal before any row is touched.
func (c *Config) RequireAPIKey() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w for provider %s", ErrMissingAPIKey, c.Provider)
	}
	return nil
}
