package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func newTestCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	cmd := CreateRootCommand(NewFlags())
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("Failed to parse flags: %v", err)
	}
	return cmd
}

func TestCreateRootCommand(t *testing.T) {
	flags := NewFlags()
	cmd := CreateRootCommand(flags)

	if cmd.Use != "schemetrans" {
		t.Errorf("Expected Use to be 'schemetrans', got %s", cmd.Use)
	}

	if !strings.Contains(cmd.Short, "government scheme records") {
		t.Errorf("Expected Short description to mention government scheme records")
	}

	flagTests := []string{
		"config", "log-level", "quiet",
		"input", "output", "checkpoint", "checkpoint-backend",
		"fields", "languages", "provider", "model",
		"batch-size", "delay", "max-attempts", "backoff", "timeout", "breaker-threshold",
		"list-models", "archive", "status", "dry-run",
	}

	for _, name := range flagTests {
		t.Run("flag_"+name, func(t *testing.T) {
			var flag *pflag.Flag
			switch name {
			case "config", "log-level", "quiet":
				flag = cmd.PersistentFlags().Lookup(name)
			default:
				flag = cmd.Flags().Lookup(name)
			}
			if flag == nil {
				t.Errorf("Expected flag %s to exist", name)
			}
		})
	}
}

func TestSetupFlagsShorthands(t *testing.T) {
	cmd := &cobra.Command{}
	setupFlags(cmd, NewFlags())

	shorthands := map[string]string{
		"input":      "i",
		"output":     "o",
		"checkpoint": "c",
		"languages":  "l",
		"batch-size": "b",
	}
	for name, short := range shorthands {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			t.Fatalf("%s flag not found", name)
		}
		if flag.Shorthand != short {
			t.Errorf("Expected shorthand %q for %s, got %q", short, name, flag.Shorthand)
		}
	}
}

func TestBuildConfigDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gem-key")
	newTestCommand(t)

	cfg, err := BuildConfig()
	if err != nil {
		t.Fatalf("BuildConfig failed: %v", err)
	}

	if cfg.BatchSize != 6 || cfg.MaxAttempts != 5 {
		t.Errorf("Unexpected defaults: batch %d, attempts %d", cfg.BatchSize, cfg.MaxAttempts)
	}
	if cfg.RequestDelay != 10*time.Second || cfg.BackoffBase != 30*time.Second {
		t.Errorf("Unexpected delays: %v, %v", cfg.RequestDelay, cfg.BackoffBase)
	}
	if cfg.Model != "gemini-2.0-flash" {
		t.Errorf("Expected default Gemini model, got %s", cfg.Model)
	}
	if cfg.APIKey != "gem-key" {
		t.Errorf("Expected API key from environment, got %q", cfg.APIKey)
	}
	if len(cfg.Languages) != 2 || cfg.Languages[1].Code != "mr" {
		t.Errorf("Unexpected languages: %v", cfg.Languages)
	}
}

func TestBuildConfigFromFlags(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "oa-key")
	newTestCommand(t,
		"--provider", "openai",
		"-i", "in.csv",
		"-l", "Tamil:ta,Bengali:bn",
		"--fields", "scheme_name,details",
		"-b", "3",
		"--delay", "2s",
		"--checkpoint-backend", "SQLite",
	)

	cfg, err := BuildConfig()
	if err != nil {
		t.Fatalf("BuildConfig failed: %v", err)
	}

	if cfg.InputPath != "in.csv" {
		t.Errorf("Expected input in.csv, got %s", cfg.InputPath)
	}
	if cfg.Provider != "openai" || cfg.Model != "gpt-4o-mini" || cfg.APIKey != "oa-key" {
		t.Errorf("Unexpected provider settings: %s %s %q", cfg.Provider, cfg.Model, cfg.APIKey)
	}
	if len(cfg.Languages) != 2 || cfg.Languages[0].Code != "ta" {
		t.Errorf("Unexpected languages: %v", cfg.Languages)
	}
	if strings.Join(cfg.Fields, ",") != "scheme_name,details" {
		t.Errorf("Unexpected fields: %v", cfg.Fields)
	}
	if cfg.BatchSize != 3 || cfg.RequestDelay != 2*time.Second {
		t.Errorf("Unexpected pacing: %d %v", cfg.BatchSize, cfg.RequestDelay)
	}
	if cfg.CheckpointBackend != "sqlite" {
		t.Errorf("Expected sqlite backend, got %s", cfg.CheckpointBackend)
	}
	if cfg.CheckpointPath != "checkpoint.db" {
		t.Errorf("Expected sqlite default checkpoint.db, got %s", cfg.CheckpointPath)
	}
}

func TestBuildConfigSQLiteExplicitPath(t *testing.T) {
	newTestCommand(t, "--checkpoint-backend", "sqlite", "-c", "runs/state.sqlite")

	cfg, err := BuildConfig()
	if err != nil {
		t.Fatalf("BuildConfig failed: %v", err)
	}
	if cfg.CheckpointPath != "runs/state.sqlite" {
		t.Errorf("Explicit checkpoint path overridden: %s", cfg.CheckpointPath)
	}
}

func TestBuildConfigFromEnvironment(t *testing.T) {
	t.Setenv("SCHEMETRANS_BATCH_SIZE", "4")
	t.Setenv("SCHEMETRANS_LANGUAGES", "Gujarati:gu,Odia:or")
	newTestCommand(t)
	InitConfig(filepath.Join(t.TempDir(), "none.yaml"))

	cfg, err := BuildConfig()
	if err != nil {
		t.Fatalf("BuildConfig failed: %v", err)
	}
	if cfg.BatchSize != 4 {
		t.Errorf("Expected batch size 4 from environment, got %d", cfg.BatchSize)
	}
	if len(cfg.Languages) != 2 || cfg.Languages[1].Code != "or" {
		t.Errorf("Unexpected languages: %v", cfg.Languages)
	}
}

func TestBuildConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero batch", []string{"-b", "0"}},
		{"unknown provider", []string{"--provider", "llama"}},
		{"bad language", []string{"-l", ":hi"}},
		{"unknown backend", []string{"--checkpoint-backend", "redis"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newTestCommand(t, tt.args...)
			if _, err := BuildConfig(); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestInitConfigWithFile(t *testing.T) {
	newTestCommand(t)

	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	content := `provider: openai
batch:
  size: 2
openai:
  api_key: file-key
`
	if err := os.WriteFile(cfgFile, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	InitConfig(cfgFile)

	if viper.ConfigFileUsed() != cfgFile {
		t.Errorf("Expected config file %s, got %s", cfgFile, viper.ConfigFileUsed())
	}
	if got := viper.GetInt("batch.size"); got != 2 {
		t.Errorf("Expected batch.size 2, got %d", got)
	}
}

func TestGetAPIKey(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	t.Setenv("OPENAI_API_KEY", "")
	viper.Set("openai.api_key", "config-key")
	if got := GetAPIKey("openai"); got != "config-key" {
		t.Errorf("Expected key from config, got %q", got)
	}

	t.Setenv("OPENAI_API_KEY", "env-key")
	if got := GetAPIKey("openai"); got != "env-key" {
		t.Errorf("Expected environment to win, got %q", got)
	}

	t.Setenv("GEMINI_API_KEY", "")
	if got := GetAPIKey(""); got != "" {
		t.Errorf("Expected no Gemini key, got %q", got)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("SCHEMETRANS_TEST_KEY=from-file\nSCHEMETRANS_TEST_SET=from-file\n"), 0644); err != nil {
		t.Fatalf("Failed to write .env: %v", err)
	}

	t.Setenv("SCHEMETRANS_TEST_SET", "from-env")
	t.Setenv("SCHEMETRANS_TEST_KEY", "")
	os.Unsetenv("SCHEMETRANS_TEST_KEY")

	if err := LoadDotEnv(envFile, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}

	if got := os.Getenv("SCHEMETRANS_TEST_KEY"); got != "from-file" {
		t.Errorf("Expected value from .env, got %q", got)
	}
	if got := os.Getenv("SCHEMETRANS_TEST_SET"); got != "from-env" {
		t.Errorf("Existing variable must win, got %q", got)
	}
}
