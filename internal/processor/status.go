package processor

import (
	"fmt"
	"io"
	"time"

	"codeberg.org/snonux/schemetrans/internal/batch"
	"codeberg.org/snonux/schemetrans/internal/checkpoint"
	"codeberg.org/snonux/schemetrans/internal/config"
	"codeberg.org/snonux/schemetrans/internal/table"
)

// StatusReport describes the progress of a run on disk
type StatusReport struct {
	Input      string
	Total      int
	Checkpoint int
	Remaining  []batch.Span
	Languages  []string
	Requests   int
	MinRuntime time.Duration
	History    []checkpoint.BatchRecord
}

// Done reports whether every row is translated
func (s *StatusReport) Done() bool {
	return s.Checkpoint >= s.Total
}

// ReadStatus inspects the input table and checkpoint without touching the
// translation service
func ReadStatus(cfg *config.Config, store checkpoint.Store) (*StatusReport, error) {
	src, err := table.ReadCSV(cfg.InputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load input: %w", err)
	}

	offset := checkpoint.Clamp(store.Load(), src.Len())
	remaining := batch.Plan(src.Len(), offset, cfg.BatchSize)
	requests := len(remaining) * len(cfg.Languages)

	report := &StatusReport{
		Input:      cfg.InputPath,
		Total:      src.Len(),
		Checkpoint: offset,
		Remaining:  remaining,
		Languages:  cfg.LanguageCodes(),
		Requests:   requests,
		MinRuntime: time.Duration(requests) * cfg.RequestDelay,
	}

	if hr, ok := store.(checkpoint.HistoryReader); ok {
		report.History, err = hr.History()
		if err != nil {
			return nil, err
		}
	}

	return report, nil
}

// PrintStatus writes a short progress summary
func PrintStatus(w io.Writer, s *StatusReport) {
	fmt.Fprintf(w, "Input: %s\n", s.Input)
	fmt.Fprintf(w, "Rows translated: %d/%d\n", s.Checkpoint, s.Total)
	fmt.Fprintf(w, "Remaining batches: %d\n", len(s.Remaining))
	if s.Done() {
		fmt.Fprintln(w, "All rows translated")
	}

	if len(s.History) > 0 {
		fmt.Fprintf(w, "\nCompleted batches: %d\n", len(s.History))
		for _, rec := range s.History {
			fmt.Fprintf(w, "  [%d, %d) %v %s\n", rec.Start, rec.End, rec.Languages, rec.CompletedAt.Format(time.DateTime))
		}
	}
}

// PrintPlan writes the batches a run would translate
func PrintPlan(w io.Writer, s *StatusReport) {
	fmt.Fprintf(w, "Batches to translate: %d (languages: %v)\n", len(s.Remaining), s.Languages)
	for i, span := range s.Remaining {
		fmt.Fprintf(w, "  %3d: rows [%d, %d)\n", i+1, span.Start, span.End)
	}
	fmt.Fprintf(w, "Requests: %d, minimum runtime: %s\n", s.Requests, s.MinRuntime)
}
