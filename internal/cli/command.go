package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"codeberg.org/snonux/schemetrans/internal"
	"codeberg.org/snonux/schemetrans/internal/config"
	"codeberg.org/snonux/schemetrans/internal/llm"
)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "schemetrans",
		Short: "Resumable batch translator for government scheme records",
		Long: `schemetrans translates the text columns of a CSV file of government
scheme records into one or more languages using a language model.

Rows are sent in small batches. After every fully translated batch the
output file and a checkpoint are written, so an interrupted or rate
limited run continues where it stopped when started again.

Examples:
  schemetrans                                  # Translate schemes.csv to Hindi and Marathi
  schemetrans -i in.csv -o out.csv -l Tamil:ta # Custom files and language
  schemetrans --status                         # Show progress of the current run
  schemetrans --dry-run                        # Show the remaining batches
  schemetrans --archive                        # Archive output and checkpoint`,
		Args:          cobra.NoArgs,
		Version:       internal.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	setupFlags(rootCmd, flags)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	// Global flags
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.schemetrans.yaml)")
	cmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level: debug, info, warn, error")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Only log errors and hide the progress bar")

	// Files
	cmd.Flags().StringVarP(&flags.Input, "input", "i", flags.Input, "Input CSV file")
	cmd.Flags().StringVarP(&flags.Output, "output", "o", flags.Output, "Output CSV file")
	cmd.Flags().StringVarP(&flags.Checkpoint, "checkpoint", "c", flags.Checkpoint, "Checkpoint file")
	cmd.Flags().StringVar(&flags.CheckpointBackend, "checkpoint-backend", flags.CheckpointBackend, "Checkpoint backend: json or sqlite")

	// Translation
	cmd.Flags().StringSliceVarP(&flags.Fields, "fields", "f", flags.Fields, "Columns to translate")
	cmd.Flags().StringSliceVarP(&flags.Languages, "languages", "l", flags.Languages, "Target languages as Name:code")
	cmd.Flags().StringVar(&flags.Provider, "provider", flags.Provider, "Language model provider: gemini or openai")
	cmd.Flags().StringVarP(&flags.Model, "model", "m", "", "Model name (default depends on provider)")

	// Pacing and retries
	cmd.Flags().IntVarP(&flags.BatchSize, "batch-size", "b", flags.BatchSize, "Rows per request")
	cmd.Flags().DurationVar(&flags.RequestDelay, "delay", flags.RequestDelay, "Pause after every request")
	cmd.Flags().IntVar(&flags.MaxAttempts, "max-attempts", flags.MaxAttempts, "Requests per batch and language before giving up on rate limits")
	cmd.Flags().DurationVar(&flags.BackoffBase, "backoff", flags.BackoffBase, "Wait before the first retry, doubled on every further retry")
	cmd.Flags().DurationVar(&flags.Timeout, "timeout", flags.Timeout, "Timeout of a single request")
	cmd.Flags().IntVar(&flags.BreakerThreshold, "breaker-threshold", flags.BreakerThreshold, "Consecutive service errors before the circuit breaker opens (0 disables)")

	// Modes
	cmd.Flags().BoolVar(&flags.ListModels, "list-models", false, "List available models for the current provider and API key")
	cmd.Flags().BoolVar(&flags.Archive, "archive", false, "Move output and checkpoint into the archive directory")
	cmd.Flags().BoolVar(&flags.Status, "status", false, "Show the progress of the current run")
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "Show the batches a run would translate without calling the service")

	bindFlagsToViper(cmd)
}

func bindFlagsToViper(cmd *cobra.Command) {
	viper.BindPFlag("log.level", cmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("input", cmd.Flags().Lookup("input"))
	viper.BindPFlag("output", cmd.Flags().Lookup("output"))
	viper.BindPFlag("checkpoint.path", cmd.Flags().Lookup("checkpoint"))
	viper.BindPFlag("checkpoint.backend", cmd.Flags().Lookup("checkpoint-backend"))
	viper.BindPFlag("fields", cmd.Flags().Lookup("fields"))
	viper.BindPFlag("languages", cmd.Flags().Lookup("languages"))
	viper.BindPFlag("provider", cmd.Flags().Lookup("provider"))
	viper.BindPFlag("model", cmd.Flags().Lookup("model"))
	viper.BindPFlag("batch.size", cmd.Flags().Lookup("batch-size"))
	viper.BindPFlag("batch.delay", cmd.Flags().Lookup("delay"))
	viper.BindPFlag("retry.max_attempts", cmd.Flags().Lookup("max-attempts"))
	viper.BindPFlag("retry.backoff", cmd.Flags().Lookup("backoff"))
	viper.BindPFlag("retry.timeout", cmd.Flags().Lookup("timeout"))
	viper.BindPFlag("retry.breaker_threshold", cmd.Flags().Lookup("breaker-threshold"))
}

// LoadDotEnv loads .env from the working directory. Variables that are
// already set win over the file.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := gotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".schemetrans" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".schemetrans")
	}

	// Environment variables, e.g. SCHEMETRANS_BATCH_SIZE
	viper.SetEnvPrefix("SCHEMETRANS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetAPIKey retrieves the API key of a provider from environment or config
func GetAPIKey(provider string) string {
	if provider == "" {
		provider = llm.ProviderGemini
	}

	// First check environment variable
	if key := os.Getenv(strings.ToUpper(provider) + "_API_KEY"); key != "" {
		return key
	}

	// Then check config file
	return viper.GetString(provider + ".api_key")
}

// BuildConfig merges flags, config file and environment into a validated
// run configuration. The API key is filled in but not required here.
func BuildConfig() (*config.Config, error) {
	langs, err := config.ParseLanguages(splitList(viper.GetStringSlice("languages")))
	if err != nil {
		return nil, err
	}

	cfg := &config.Config{
		InputPath:         viper.GetString("input"),
		OutputPath:        viper.GetString("output"),
		CheckpointPath:    viper.GetString("checkpoint.path"),
		CheckpointBackend: strings.ToLower(viper.GetString("checkpoint.backend")),
		Fields:            splitList(viper.GetStringSlice("fields")),
		Languages:         langs,
		BatchSize:         viper.GetInt("batch.size"),
		RequestDelay:      viper.GetDuration("batch.delay"),
		MaxAttempts:       viper.GetInt("retry.max_attempts"),
		BackoffBase:       viper.GetDuration("retry.backoff"),
		Timeout:           viper.GetDuration("retry.timeout"),
		BreakerThreshold:  viper.GetInt("retry.breaker_threshold"),
		Provider:          strings.ToLower(viper.GetString("provider")),
		Model:             viper.GetString("model"),
	}
	// The JSON default would otherwise be opened as a database
	if cfg.CheckpointBackend == config.BackendSQLite && cfg.CheckpointPath == config.DefaultCheckpointPath {
		cfg.CheckpointPath = config.DefaultSQLiteCheckpointPath
	}
	if cfg.Provider == "" {
		cfg.Provider = llm.ProviderGemini
	}
	if cfg.Provider != llm.ProviderGemini && cfg.Provider != llm.ProviderOpenAI {
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
	if cfg.Model == "" {
		cfg.Model = llm.DefaultModel(cfg.Provider)
	}
	cfg.APIKey = GetAPIKey(cfg.Provider)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// splitList flattens comma separated entries, as environment variables
// arrive as a single string
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
