package translation

import "fmt"

// Reason tags why a translation attempt failed
type Reason string

const (
	ReasonRetriesExhausted  Reason = "retries_exhausted"
	ReasonMalformedResponse Reason = "malformed_response"
	ReasonService           Reason = "service_error"
	ReasonBreakerOpen       Reason = "breaker_open"
	ReasonRowCountMismatch  Reason = "row_count_mismatch"
	ReasonCanceled          Reason = "canceled"
)

// Failure describes a batch that could not be translated into Lang
type Failure struct {
	Reason   Reason
	Lang     string
	Attempts int
	Err      error
}

func (f *Failure) Error() string {
	if f.Attempts == 0 {
		return fmt.Sprintf("translation to %s failed (%s): %v", f.Lang, f.Reason, f.Err)
	}
	if f.Err == nil {
		return fmt.Sprintf("translation to %s failed (%s) after %d attempt(s)", f.Lang, f.Reason, f.Attempts)
	}
	return fmt.Sprintf("translation to %s failed (%s) after %d attempt(s): %v", f.Lang, f.Reason, f.Attempts, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}
