package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"codeberg.org/snonux/schemetrans/internal/batch"
	"codeberg.org/snonux/schemetrans/internal/config"
	"codeberg.org/snonux/schemetrans/internal/llm"
	"codeberg.org/snonux/schemetrans/internal/table"
	"codeberg.org/snonux/schemetrans/internal/testutil"
)

var hindi = config.Language{Name: "Hindi", Code: "hi"}

func testBatch() batch.Batch {
	rows := []table.Record{
		{"scheme_name": "A", "details": "a", "benefits": "a", "eligibility": "a"},
		{"scheme_name": "B", "details": "b", "benefits": "b", "eligibility": "b"},
	}
	return batch.Extract(rows, 0, 2)
}

func newTestTranslator(p *testutil.MockProvider, timer *testutil.FakeTimer, attempts int) *Translator {
	return NewTranslator(p, Options{
		Fields:      config.DefaultFields,
		MaxAttempts: attempts,
		BackoffBase: 30 * time.Second,
		Timer:       timer,
	})
}

func rateLimited() error {
	return genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "quota exceeded"}
}

func TestTranslateSuccess(t *testing.T) {
	mock := testutil.NewMockProvider(testutil.MockResponse{
		Text: "```json\n[{\"scheme_name\":\"ए\"},{\"scheme_name\":\"बी\"}]\n```",
	})
	timer := testutil.NewFakeTimer()

	rows, err := newTestTranslator(mock, timer, 5).Translate(context.Background(), testBatch(), hindi)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "बी", rows[1]["scheme_name"])
	assert.Equal(t, 1, mock.Calls())
	assert.Empty(t, timer.Recorded())
}

func TestTranslateRetriesRateLimits(t *testing.T) {
	mock := testutil.NewMockProvider(
		testutil.MockResponse{Err: rateLimited()},
		testutil.MockResponse{Err: &openai.APIError{HTTPStatusCode: 429}},
		testutil.MockResponse{Text: `[{"scheme_name":"x"},{"scheme_name":"y"}]`},
	)
	timer := testutil.NewFakeTimer()

	rows, err := newTestTranslator(mock, timer, 5).Translate(context.Background(), testBatch(), hindi)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, 3, mock.Calls())
	assert.Equal(t, []time.Duration{30 * time.Second, 60 * time.Second}, timer.Recorded())

	// Retries send the identical prompt
	assert.Equal(t, mock.Prompts[0], mock.Prompts[1])
	assert.Equal(t, mock.Prompts[0], mock.Prompts[2])
}

func TestTranslateRetriesExhausted(t *testing.T) {
	mock := testutil.NewMockProvider()
	mock.Fallback = func(string) (string, error) { return "", rateLimited() }
	timer := testutil.NewFakeTimer()

	_, err := newTestTranslator(mock, timer, 5).Translate(context.Background(), testBatch(), hindi)
	require.Error(t, err)

	var failure *Failure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, ReasonRetriesExhausted, failure.Reason)
	assert.Equal(t, "hi", failure.Lang)
	assert.Equal(t, 5, failure.Attempts)
	assert.Equal(t, 5, mock.Calls())
	assert.Equal(t, []time.Duration{
		30 * time.Second,
		60 * time.Second,
		120 * time.Second,
		240 * time.Second,
	}, timer.Recorded())
}

func TestTranslateSingleAttempt(t *testing.T) {
	mock := testutil.NewMockProvider(testutil.MockResponse{Err: rateLimited()})
	timer := testutil.NewFakeTimer()

	_, err := newTestTranslator(mock, timer, 1).Translate(context.Background(), testBatch(), hindi)
	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, ReasonRetriesExhausted, failure.Reason)
	assert.Equal(t, 1, mock.Calls())
	assert.Empty(t, timer.Recorded())
}

func TestTranslateMalformedResponseNotRetried(t *testing.T) {
	mock := testutil.NewMockProvider(
		testutil.MockResponse{Text: "Sorry, I cannot help with that."},
		testutil.MockResponse{Text: `[]`},
	)
	timer := testutil.NewFakeTimer()

	_, err := newTestTranslator(mock, timer, 5).Translate(context.Background(), testBatch(), hindi)
	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, ReasonMalformedResponse, failure.Reason)
	assert.Equal(t, 1, mock.Calls())
	assert.Empty(t, timer.Recorded())
}

func TestTranslateServiceErrorNotRetried(t *testing.T) {
	mock := testutil.NewMockProvider(testutil.MockResponse{Err: &openai.APIError{HTTPStatusCode: 401, Message: "invalid key"}})
	timer := testutil.NewFakeTimer()

	_, err := newTestTranslator(mock, timer, 5).Translate(context.Background(), testBatch(), hindi)
	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, ReasonService, failure.Reason)
	assert.Equal(t, 1, failure.Attempts)
	assert.True(t, strings.Contains(failure.Error(), "invalid key"))

	var apiErr *openai.APIError
	assert.ErrorAs(t, err, &apiErr)
}

func TestTranslatePassesRowCountThrough(t *testing.T) {
	mock := testutil.NewMockProvider(testutil.MockResponse{Text: `[{"scheme_name":"only one"}]`})

	rows, err := newTestTranslator(mock, testutil.NewFakeTimer(), 5).Translate(context.Background(), testBatch(), hindi)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestTranslateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := testutil.NewMockProvider(testutil.MockResponse{Text: `[]`})
	_, err := newTestTranslator(mock, testutil.NewFakeTimer(), 5).Translate(ctx, testBatch(), hindi)

	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, ReasonCanceled, failure.Reason)
	assert.ErrorIs(t, err, context.Canceled)
}

func unavailable() error {
	return genai.APIError{Code: 503, Status: "UNAVAILABLE", Message: "model overloaded"}
}

func TestTranslateRetriesTransientErrors(t *testing.T) {
	mock := testutil.NewMockProvider(
		testutil.MockResponse{Err: unavailable()},
		testutil.MockResponse{Err: fmt.Errorf("OpenAI API error: %w", context.DeadlineExceeded)},
		testutil.MockResponse{Text: `[{"scheme_name":"x"},{"scheme_name":"y"}]`},
	)
	timer := testutil.NewFakeTimer()

	rows, err := newTestTranslator(mock, timer, 5).Translate(context.Background(), testBatch(), hindi)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, 3, mock.Calls())
	assert.Equal(t, []time.Duration{30 * time.Second, 60 * time.Second}, timer.Recorded())
}

func TestTranslateTransientErrorsExhausted(t *testing.T) {
	mock := testutil.NewMockProvider()
	mock.Fallback = func(string) (string, error) { return "", unavailable() }

	_, err := newTestTranslator(mock, testutil.NewFakeTimer(), 3).Translate(context.Background(), testBatch(), hindi)
	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, ReasonService, failure.Reason)
	assert.Equal(t, 3, failure.Attempts)
	assert.Equal(t, 3, mock.Calls())
}

func TestTranslateBreakerStopsRetries(t *testing.T) {
	mock := testutil.NewMockProvider()
	mock.Fallback = func(string) (string, error) { return "", unavailable() }
	timer := testutil.NewFakeTimer()

	tr := NewTranslator(llm.WithBreaker(mock, 2, time.Minute), Options{
		Fields:      config.DefaultFields,
		MaxAttempts: 5,
		BackoffBase: 30 * time.Second,
		Timer:       timer,
	})

	_, err := tr.Translate(context.Background(), testBatch(), hindi)
	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, ReasonBreakerOpen, failure.Reason)
	assert.ErrorIs(t, err, llm.ErrBreakerOpen)
	assert.Equal(t, 3, failure.Attempts)

	// The third request is rejected by the breaker without reaching the service
	assert.Equal(t, 2, mock.Calls())
	assert.Equal(t, []time.Duration{30 * time.Second, 60 * time.Second}, timer.Recorded())
}

func TestTranslateBackoffSaturates(t *testing.T) {
	mock := testutil.NewMockProvider()
	mock.Fallback = func(string) (string, error) { return "", rateLimited() }
	timer := testutil.NewFakeTimer()

	_, err := newTestTranslator(mock, timer, 30).Translate(context.Background(), testBatch(), hindi)
	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, ReasonRetriesExhausted, failure.Reason)
	assert.Equal(t, 30, mock.Calls())

	waits := timer.Recorded()
	require.Len(t, waits, 29)
	for k, wait := range waits {
		want := MaxBackoff
		if k < 12 {
			want = (30 * time.Second) << k
		}
		assert.Equal(t, want, wait, "wait %d", k)
	}
}

func TestMaxInterval(t *testing.T) {
	base := 30 * time.Second
	assert.Equal(t, base, maxInterval(base, 1))
	assert.Equal(t, base, maxInterval(base, 2))
	assert.Equal(t, 8*base, maxInterval(base, 5))
	assert.Equal(t, MaxBackoff, maxInterval(base, 64))
	assert.Equal(t, MaxBackoff, maxInterval(base, 1000))
	assert.Equal(t, MaxBackoff, maxInterval(48*time.Hour, 3))
	assert.Equal(t, time.Duration(0), maxInterval(0, 10))
}
