package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/Cyclone1070/storyloop/internal/provider"
)

// statusError represents an HTTP error response from the API.
type statusError struct {
	StatusCode int
	Type       string
	Message    string
	RetryAfter *time.Duration
}

func (e *statusError) Error() string {
	return fmt.Sprintf("openai: %d %s: %s", e.StatusCode, e.Type, e.Message)
}

// parseStatusError reads an error response body.
func parseStatusError(resp *http.Response) *statusError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	body := gjson.ParseBytes(raw)

	se := &statusError{
		StatusCode: resp.StatusCode,
		Type:       body.Get("error.type").String(),
		Message:    body.Get("error.message").String(),
	}
	if se.Message == "" {
		se.Message = resp.Status
	}
	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
		d := time.Duration(secs) * time.Second
		se.RetryAfter = &d
	}
	return se
}

// mapError translates HTTP and network errors into provider errors.
// Context errors pass through untouched so callers can tell cancellation apart.
func mapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	var se *statusError
	if errors.As(err, &se) {
		if se.Type == "context_length_exceeded" || strings.Contains(strings.ToLower(se.Message), "context length") {
			return &provider.Error{Code: provider.ErrorCodeContextLength, Message: se.Message, Underlying: err}
		}
		pe := provider.FromHTTPStatus(se.StatusCode, se.Message, err)
		pe.RetryAfter = se.RetryAfter
		return pe
	}

	return &provider.Error{
		Code:       provider.ErrorCodeNetwork,
		Message:    "server unreachable",
		Underlying: err,
		Retryable:  true,
	}
}
