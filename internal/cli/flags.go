package cli

import (
	"time"

	"codeberg.org/snonux/schemetrans/internal/config"
)

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile  string
	LogLevel string
	Quiet    bool

	// Files
	Input             string
	Output            string
	Checkpoint        string
	CheckpointBackend string

	// Translation
	Fields    []string
	Languages []string
	Provider  string
	Model     string

	// Pacing and retries
	BatchSize        int
	RequestDelay     time.Duration
	MaxAttempts      int
	BackoffBase      time.Duration
	Timeout          time.Duration
	BreakerThreshold int

	// Modes
	ListModels bool
	Archive    bool
	Status     bool
	DryRun     bool
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	def := config.Default()
	return &Flags{
		LogLevel:          "info",
		Input:             def.InputPath,
		Output:            def.OutputPath,
		Checkpoint:        def.CheckpointPath,
		CheckpointBackend: def.CheckpointBackend,
		Fields:            append([]string(nil), config.DefaultFields...),
		Languages:         append([]string(nil), config.DefaultLanguages...),
		Provider:          def.Provider,
		BatchSize:         def.BatchSize,
		RequestDelay:      def.RequestDelay,
		MaxAttempts:       def.MaxAttempts,
		BackoffBase:       def.BackoffBase,
		Timeout:           def.Timeout,
		BreakerThreshold:  def.BreakerThreshold,
	}
}
