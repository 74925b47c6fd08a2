package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"codeberg.org/snonux/schemetrans/internal/testutil"
)

func TestWithBreakerDisabled(t *testing.T) {
	mock := testutil.NewMockProvider()
	assert.Same(t, mock, WithBreaker(mock, 0, time.Minute))
}

func TestWithBreakerOpensAfterHardFailures(t *testing.T) {
	boom := errors.New("internal error")
	mock := testutil.NewMockProvider(
		testutil.MockResponse{Err: boom},
		testutil.MockResponse{Err: boom},
		testutil.MockResponse{Text: "[]"},
	)
	p := WithBreaker(mock, 2, time.Hour)

	ctx := context.Background()
	_, err := p.Generate(ctx, "a")
	assert.ErrorIs(t, err, boom)
	_, err = p.Generate(ctx, "b")
	assert.ErrorIs(t, err, boom)

	_, err = p.Generate(ctx, "c")
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.Equal(t, 2, mock.Calls())
}

func TestWithBreakerIgnoresRateLimits(t *testing.T) {
	limited := genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"}
	mock := testutil.NewMockProvider(
		testutil.MockResponse{Err: limited},
		testutil.MockResponse{Err: limited},
		testutil.MockResponse{Err: limited},
		testutil.MockResponse{Text: "[]"},
	)
	p := WithBreaker(mock, 1, time.Hour)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := p.Generate(ctx, "x")
		assert.True(t, IsRateLimited(err))
	}

	out, err := p.Generate(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
	assert.Equal(t, "mock", p.Name())
}
