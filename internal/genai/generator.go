// Package genai provides the chat-completion client used for summaries and answers.
package genai

import (
	"context"
	"errors"
	"fmt"
)

// Generator produces a completion from a system instruction and a user prompt.
type Generator interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Close() error
}

// ProviderError reports a failure calling the remote generation provider:
// network error, rate-limit rejection, or malformed payload. Callers recover
// with a fixed fallback answer rather than propagating.
type ProviderError struct {
	Model string
	Err   error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("generation provider (%s): %v", e.Model, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsProviderError reports whether err is (or wraps) a ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
