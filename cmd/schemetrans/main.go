package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"codeberg.org/snonux/schemetrans/internal/archive"
	"codeberg.org/snonux/schemetrans/internal/checkpoint"
	"codeberg.org/snonux/schemetrans/internal/cli"
	"codeberg.org/snonux/schemetrans/internal/config"
	"codeberg.org/snonux/schemetrans/internal/llm"
	"codeberg.org/snonux/schemetrans/internal/logging"
	"codeberg.org/snonux/schemetrans/internal/models"
	"codeberg.org/snonux/schemetrans/internal/processor"
	"codeberg.org/snonux/schemetrans/internal/translation"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Create root command
	rootCmd := cli.CreateRootCommand(flags)

	// Set up command initialization
	cobra.OnInitialize(func() {
		if err := cli.LoadDotEnv(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
		cli.InitConfig(flags.CfgFile)
	})

	// Set the run function
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd.Context(), flags)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Execute command
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func runCommand(ctx context.Context, flags *cli.Flags) error {
	if err := logging.Setup(flags.LogLevel, flags.Quiet); err != nil {
		return err
	}

	cfg, err := cli.BuildConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Handle --archive flag
	if flags.Archive {
		if _, err := archive.ArchiveRun(cfg.OutputPath, cfg.CheckpointPath); err != nil {
			return fmt.Errorf("failed to archive run: %w", err)
		}
		return nil
	}

	// Handle --list-models flag
	if flags.ListModels {
		lister := models.NewLister(cfg.Provider, cfg.APIKey)
		return lister.ListAvailableModels(ctx)
	}

	if flags.Status || flags.DryRun {
		store, err := checkpoint.OpenReadOnly(cfg.CheckpointBackend, cfg.CheckpointPath)
		if err != nil {
			return err
		}
		defer store.Close()

		report, err := processor.ReadStatus(cfg, store)
		if err != nil {
			return err
		}
		if flags.DryRun {
			processor.PrintPlan(os.Stdout, report)
		} else {
			processor.PrintStatus(os.Stdout, report)
		}
		return nil
	}

	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}

	store, err := checkpoint.NewStore(cfg.CheckpointBackend, cfg.CheckpointPath)
	if err != nil {
		return err
	}
	defer store.Close()

	return translate(ctx, cfg, store, flags.Quiet)
}

func translate(ctx context.Context, cfg *config.Config, store checkpoint.Store, quiet bool) error {
	provider, err := llm.NewProvider(ctx, &llm.Config{
		Provider: cfg.Provider,
		APIKey:   cfg.APIKey,
		Model:    cfg.Model,
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return err
	}
	provider = llm.WithBreaker(provider, cfg.BreakerThreshold, cfg.BackoffBase)

	translator := translation.NewTranslator(provider, translation.Options{
		Fields:      cfg.Fields,
		MaxAttempts: cfg.MaxAttempts,
		BackoffBase: cfg.BackoffBase,
	})

	var progressOut io.Writer = os.Stderr
	if quiet {
		progressOut = nil
	}

	proc := processor.NewProcessor(cfg, translator, store, processor.WithProgress(progressOut))
	summary, err := proc.Run(ctx)
	printSummary(cfg, provider.Name(), summary)
	return err
}

func printSummary(cfg *config.Config, provider string, s *processor.Summary) {
	if s == nil || s.Total == 0 && s.State != processor.StateDone {
		return
	}

	fmt.Printf("\n=== Translation Summary ===\n")
	fmt.Printf("Provider: %s\n", provider)
	fmt.Printf("Rows translated: %d/%d\n", s.Checkpoint, s.Total)
	fmt.Printf("Batches this run: %d\n", s.Batches)
	fmt.Printf("State: %s\n", s.State)
	if s.Failure != nil {
		fmt.Printf("Stopped at row %d (%s, %s). Run again to resume.\n", s.Checkpoint, s.Failure.Lang, s.Failure.Reason)
	}
	if s.State == processor.StateDone {
		fmt.Printf("Output: %s\n", cfg.OutputPath)
	}
	fmt.Printf("===========================\n")
}
