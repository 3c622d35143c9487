package embedding

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when the input text is empty.
var ErrEmptyInput = errors.New("embedding: empty input")

// ProviderError reports a failure calling the remote embedding provider:
// network error, rate-limit rejection, or malformed payload. Callers recover
// by substituting ZeroVector rather than aborting the batch.
type ProviderError struct {
	Model string
	Err   error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("embedding provider (%s): %v", e.Model, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsProviderError reports whether err is (or wraps) a ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
