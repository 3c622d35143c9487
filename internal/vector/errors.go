package vector

import (
	"errors"
	"fmt"
)

// CorruptStoreError reports a persisted store whose byte length does not match
// the expected record count and dimension. It means the store is stale or
// truncated relative to the records table and must not be queried.
type CorruptStoreError struct {
	Path      string
	GotBytes  int64
	WantBytes int64
}

func (e *CorruptStoreError) Error() string {
	return fmt.Sprintf("corrupt vector store %s: %d bytes, expected %d", e.Path, e.GotBytes, e.WantBytes)
}

// IsCorruptStore reports whether err is (or wraps) a CorruptStoreError.
func IsCorruptStore(err error) bool {
	var ce *CorruptStoreError
	return errors.As(err, &ce)
}

// BuildError reports an I/O failure persisting the store. Individual embedding
// failures never raise a BuildError; they degrade to zero vectors.
type BuildError struct {
	Path string
	Err  error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("failed to persist vector store %s: %v", e.Path, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }
