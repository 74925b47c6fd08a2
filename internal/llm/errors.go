package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

const statusResourceExhausted = "RESOURCE_EXHAUSTED"

// IsRateLimited reports whether err signals a rate limit or exhausted quota
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}

	var gerr genai.APIError
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests || gerr.Status == statusResourceExhausted
	}

	var gperr *genai.APIError
	if errors.As(err, &gperr) {
		return gperr.Code == http.StatusTooManyRequests || gperr.Status == statusResourceExhausted
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests
	}

	// Providers that only surface a message
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, statusResourceExhausted)
}

// IsTransient reports whether err is a server side or timeout failure that
// may succeed when repeated: HTTP 5xx, an expired request deadline or a
// network timeout. Rate limits are not included, see IsRateLimited.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if code, ok := statusCode(err); ok {
		return code >= http.StatusInternalServerError
	}
	return false
}

func statusCode(err error) (int, bool) {
	var gerr genai.APIError
	if errors.As(err, &gerr) {
		return gerr.Code, true
	}

	var gperr *genai.APIError
	if errors.As(err, &gperr) {
		return gperr.Code, true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode, true
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode, true
	}
	return 0, false
}
