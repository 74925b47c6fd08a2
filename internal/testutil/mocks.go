package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockResponse is one scripted reply of a MockProvider
type MockResponse struct {
	Text string
	Err  error
}

// MockProvider replays scripted responses in order. Once the script is
// used up, Fallback (if set) produces the reply for each further prompt.
type MockProvider struct {
	mu        sync.Mutex
	Responses []MockResponse
	Fallback  func(prompt string) (string, error)
	Prompts   []string
}

// NewMockProvider creates a provider replaying the given responses
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{Responses: responses}
}

// Name identifies the mock
func (m *MockProvider) Name() string {
	return "mock"
}

// Generate records the prompt and returns the next scripted reply
func (m *MockProvider) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	idx := len(m.Prompts)
	m.Prompts = append(m.Prompts, prompt)

	if idx < len(m.Responses) {
		return m.Responses[idx].Text, m.Responses[idx].Err
	}
	if m.Fallback != nil {
		return m.Fallback(prompt)
	}
	return "", fmt.Errorf("mock provider: no response scripted for call %d", idx+1)
}

// Calls returns the number of Generate invocations
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}

// FakeTimer fires immediately and records every requested wait. It
// satisfies backoff.Timer.
type FakeTimer struct {
	mu    sync.Mutex
	c     chan time.Time
	Waits []time.Duration
}

// NewFakeTimer creates a timer that never blocks
func NewFakeTimer() *FakeTimer {
	return &FakeTimer{c: make(chan time.Time, 1)}
}

// Start records d and fires the timer
func (f *FakeTimer) Start(d time.Duration) {
	f.mu.Lock()
	f.Waits = append(f.Waits, d)
	f.mu.Unlock()

	select {
	case f.c <- time.Now():
	default:
	}
}

// Stop does nothing
func (f *FakeTimer) Stop() {}

// C returns the timer channel
func (f *FakeTimer) C() <-chan time.Time {
	return f.c
}

// Recorded returns a copy of the recorded waits
func (f *FakeTimer) Recorded() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.Waits...)
}

// SleepRecorder replaces real sleeps in tests
type SleepRecorder struct {
	mu     sync.Mutex
	Sleeps []time.Duration
}

// Sleep records d and returns immediately unless ctx is done
func (s *SleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.Sleeps = append(s.Sleeps, d)
	s.mu.Unlock()
	return ctx.Err()
}

// Count returns the number of recorded sleeps
func (s *SleepRecorder) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Sleeps)
}
