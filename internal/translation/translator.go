package translation

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"codeberg.org/snonux/schemetrans/internal/batch"
	"codeberg.org/snonux/schemetrans/internal/config"
	"codeberg.org/snonux/schemetrans/internal/llm"
)

// MaxBackoff caps a single retry wait
const MaxBackoff = 24 * time.Hour

// Options tunes the translator
type Options struct {
	// Fields are the record columns sent for translation
	Fields []string

	// MaxAttempts is the total number of requests per batch and language,
	// the first one included. Rate limits and transient service errors are
	// retried.
	MaxAttempts int

	// BackoffBase is the wait before the first retry; it doubles each time
	// up to MaxBackoff
	BackoffBase time.Duration

	// Timer replaces the real backoff timer, mainly in tests
	Timer backoff.Timer
}

// Translator translates batches of records through a language model
type Translator struct {
	provider llm.Provider
	opts     Options
}

// NewTranslator creates a new translator instance
func NewTranslator(provider llm.Provider, opts Options) *Translator {
	if len(opts.Fields) == 0 {
		opts.Fields = config.DefaultFields
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &Translator{provider: provider, opts: opts}
}

// Translate returns one row per parsed array element of the model reply.
// The row count is not checked here.
func (t *Translator) Translate(ctx context.Context, b batch.Batch, lang config.Language) ([]Row, error) {
	prompt, err := BuildPrompt(b.Rows, t.opts.Fields, lang.Name)
	if err != nil {
		return nil, t.fail(lang, ReasonMalformedResponse, 0, err)
	}

	attempts := 0
	var rows []Row

	operation := func() error {
		attempts++

		text, err := t.provider.Generate(ctx, prompt)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, llm.ErrBreakerOpen) {
				return backoff.Permanent(err)
			}
			if llm.IsRateLimited(err) || llm.IsTransient(err) {
				return err
			}
			return backoff.Permanent(err)
		}

		parsed, err := ParseRows(ExtractJSON(text))
		if err != nil {
			return backoff.Permanent(&malformedError{err: err})
		}
		rows = parsed
		return nil
	}

	notify := func(err error, wait time.Duration) {
		log.Warn().
			Str("lang", lang.Code).
			Int("attempt", attempts).
			Int("max_attempts", t.opts.MaxAttempts).
			Dur("wait", wait).
			Bool("rate_limited", llm.IsRateLimited(err)).
			Err(err).
			Msg("request failed, backing off")
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(t.newBackOff(), uint64(t.opts.MaxAttempts-1)), ctx)

	err = backoff.RetryNotifyWithTimer(operation, policy, notify, t.opts.Timer)
	if err == nil {
		log.Debug().Str("lang", lang.Code).Int("rows", len(rows)).Int("attempts", attempts).Msg("batch translated")
		return rows, nil
	}

	var malformed *malformedError
	switch {
	case ctx.Err() != nil:
		return nil, t.fail(lang, ReasonCanceled, attempts, ctx.Err())
	case errors.Is(err, llm.ErrBreakerOpen):
		return nil, t.fail(lang, ReasonBreakerOpen, attempts, err)
	case errors.As(err, &malformed):
		return nil, t.fail(lang, ReasonMalformedResponse, attempts, malformed.err)
	case llm.IsRateLimited(err):
		return nil, t.fail(lang, ReasonRetriesExhausted, attempts, err)
	default:
		return nil, t.fail(lang, ReasonService, attempts, err)
	}
}

func (t *Translator) newBackOff() *backoff.ExponentialBackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = min(t.opts.BackoffBase, MaxBackoff)
	exp.RandomizationFactor = 0
	exp.Multiplier = 2
	exp.MaxInterval = maxInterval(t.opts.BackoffBase, t.opts.MaxAttempts)
	exp.MaxElapsedTime = 0
	exp.Reset()
	return exp
}

// maxInterval returns base*2^(attempts-2), the longest wait of a run of
// attempts requests, saturating at MaxBackoff instead of overflowing
func maxInterval(base time.Duration, attempts int) time.Duration {
	if base <= 0 {
		return 0
	}

	d := base
	for i := 2; i < attempts; i++ {
		if d >= MaxBackoff/2 {
			return MaxBackoff
		}
		d *= 2
	}
	return min(d, MaxBackoff)
}

func (t *Translator) fail(lang config.Language, reason Reason, attempts int, err error) *Failure {
	log.Error().
		Str("lang", lang.Code).
		Str("reason", string(reason)).
		Int("attempts", attempts).
		Err(err).
		Msg("translation failed")
	return &Failure{Reason: reason, Lang: lang.Code, Attempts: attempts, Err: err}
}

type malformedError struct {
	err error
}

func (e *malformedError) Error() string {
	return "malformed response: " + e.err.Error()
}

func (e *malformedError) Unwrap() error {
	return e.err
}
