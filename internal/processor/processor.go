package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"codeberg.org/snonux/schemetrans/internal/batch"
	"codeberg.org/snonux/schemetrans/internal/checkpoint"
	"codeberg.org/snonux/schemetrans/internal/config"
	"codeberg.org/snonux/schemetrans/internal/table"
	"codeberg.org/snonux/schemetrans/internal/translation"
)

// State is a stage of the run
type State string

const (
	StateLoading     State = "LOADING"
	StateIterating   State = "ITERATING"
	StateTranslating State = "TRANSLATING_BATCH"
	StatePersisting  State = "PERSISTING"
	StateHalted      State = "HALTED_ON_ERROR"
	StateDone        State = "DONE"
)

// ErrHalted is returned when a batch could not be translated
var ErrHalted = errors.New("run halted")

// Invoker translates one batch into one language
type Invoker interface {
	Translate(ctx context.Context, b batch.Batch, lang config.Language) ([]translation.Row, error)
}

// SleepFunc waits d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Summary describes how a run ended
type Summary struct {
	State      State
	Checkpoint int
	Total      int
	Batches    int
	History    []State
	Failure    *translation.Failure
}

// Option customizes a Processor
type Option func(*Processor)

// WithSleep replaces the pause between service requests
func WithSleep(sleep SleepFunc) Option {
	return func(p *Processor) {
		p.sleep = sleep
	}
}

// WithProgress draws a progress bar on w
func WithProgress(w io.Writer) Option {
	return func(p *Processor) {
		p.progressOut = w
	}
}

// Processor runs the batch translation pipeline
type Processor struct {
	cfg         *config.Config
	invoker     Invoker
	store       checkpoint.Store
	sleep       SleepFunc
	progressOut io.Writer

	summary *Summary
}

// NewProcessor creates a new processor
func NewProcessor(cfg *config.Config, invoker Invoker, store checkpoint.Store, opts ...Option) *Processor {
	p := &Processor{
		cfg:     cfg,
		invoker: invoker,
		store:   store,
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes every remaining batch. It returns a nil error only when the
// whole table is translated.
func (p *Processor) Run(ctx context.Context) (*Summary, error) {
	p.summary = &Summary{}
	p.enter(StateLoading)

	t, offset, err := p.load()
	if err != nil {
		p.enter(StateHalted)
		return p.summary, err
	}

	total := t.Len()
	p.summary.Total = total
	p.summary.Checkpoint = offset
	records := t.Records()

	log.Info().
		Str("input", p.cfg.InputPath).
		Int("rows", total).
		Int("offset", offset).
		Strs("languages", p.cfg.LanguageCodes()).
		Msg("starting translation run")

	bar := newProgress(p.progressOut, total, offset)
	defer bar.finish()

	for {
		p.enter(StateIterating)
		if offset >= total {
			p.enter(StateDone)
			log.Info().Int("rows", total).Int("batches", p.summary.Batches).Msg("translation complete")
			return p.summary, nil
		}

		if err := ctx.Err(); err != nil {
			return p.summary, err
		}

		b := batch.Extract(records, offset, p.cfg.BatchSize)

		p.enter(StateTranslating)
		results, err := p.translateBatch(ctx, b)
		if err != nil {
			return p.halt(b, err)
		}

		p.enter(StatePersisting)
		Merge(t, b.Start, p.cfg.Fields, results)
		if err := p.persist(t, b); err != nil {
			p.enter(StateHalted)
			return p.summary, err
		}

		offset = b.End
		p.summary.Checkpoint = offset
		p.summary.Batches++
		bar.add(b.Len())

		log.Info().Int("start", b.Start).Int("end", b.End).Int("total", total).Msg("batch persisted")
	}
}

func (p *Processor) enter(s State) {
	p.summary.State = s
	p.summary.History = append(p.summary.History, s)
}

// load reads the working table and the resume offset
func (p *Processor) load() (*table.Table, int, error) {
	src, err := table.ReadCSV(p.cfg.InputPath)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load input: %w", err)
	}

	if missing := src.Missing(p.cfg.Fields); len(missing) > 0 {
		return nil, 0, fmt.Errorf("input is missing columns to translate: %v", missing)
	}

	offset := checkpoint.Clamp(p.store.Load(), src.Len())
	t := src

	// Earlier translations live only in the output file
	if offset > 0 {
		prev, err := table.ReadCSV(p.cfg.OutputPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
			log.Warn().
				Int("checkpoint", offset).
				Str("output", p.cfg.OutputPath).
				Msg("checkpoint found but output file is missing, starting over")
			offset = 0
		case err != nil:
			return nil, 0, fmt.Errorf("failed to load previous output: %w", err)
		case prev.Len() != src.Len():
			return nil, 0, fmt.Errorf("previous output has %d rows but input has %d, archive the run or remove the checkpoint",
				prev.Len(), src.Len())
		default:
			t = prev
		}
	}

	for _, lang := range p.cfg.Languages {
		for _, field := range p.cfg.Fields {
			t.EnsureColumn(table.ColumnName(field, lang.Code))
		}
	}

	if dir := filepath.Dir(p.cfg.OutputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, 0, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	return t, offset, nil
}

// translateBatch asks for every language in order and stops at the first
// failure. The request delay follows every call, failed ones included.
func (p *Processor) translateBatch(ctx context.Context, b batch.Batch) ([]LangResult, error) {
	results := make([]LangResult, 0, len(p.cfg.Languages))

	for _, lang := range p.cfg.Languages {
		log.Debug().Int("start", b.Start).Int("end", b.End).Str("lang", lang.Code).Msg("translating batch")

		rows, err := p.invoker.Translate(ctx, b, lang)

		if serr := p.sleep(ctx, p.cfg.RequestDelay); serr != nil && err == nil {
			err = &translation.Failure{Reason: translation.ReasonCanceled, Lang: lang.Code, Err: serr}
		}
		if err != nil {
			return nil, err
		}

		if len(rows) != b.Len() {
			return nil, &translation.Failure{
				Reason: translation.ReasonRowCountMismatch,
				Lang:   lang.Code,
				Err:    fmt.Errorf("got %d rows for a batch of %d", len(rows), b.Len()),
			}
		}

		results = append(results, LangResult{Lang: lang, Rows: rows})
	}

	return results, nil
}

// persist writes the table, then advances the checkpoint
func (p *Processor) persist(t *table.Table, b batch.Batch) error {
	if err := t.WriteCSV(p.cfg.OutputPath); err != nil {
		return fmt.Errorf("failed to save output: %w", err)
	}

	if rec, ok := p.store.(checkpoint.BatchRecorder); ok {
		return rec.Commit(b.Start, b.End, p.cfg.LanguageCodes())
	}
	return p.store.Save(b.End)
}

func (p *Processor) halt(b batch.Batch, err error) (*Summary, error) {
	p.enter(StateHalted)

	ev := log.Error().Int("offset", b.Start).Int("end", b.End).Err(err)
	var failure *translation.Failure
	if errors.As(err, &failure) {
		p.summary.Failure = failure
		ev = ev.Str("lang", failure.Lang).Str("reason", string(failure.Reason))
	}
	ev.Msg("batch failed, halting; rerun to resume from this offset")

	return p.summary, fmt.Errorf("%w at offset %d: %w", ErrHalted, b.Start, err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
