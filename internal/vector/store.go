// Package vector provides the persisted embedding matrix and brute-force
// cosine retrieval over it.
//
// The on-disk format is a raw sequence of little-endian IEEE-754 float32s,
// row-major, exactly rows*dim*4 bytes with no header. Record count and
// dimension are supplied externally at load time, and the byte count is the
// consistency check tying the store to the records table.
package vector

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/hyperjump/kotae/internal/embedding"
	"go.uber.org/zap"
)

// Store is a dense row-major embedding matrix. Row i holds the embedding of
// record i; the alignment is the core invariant and no operation reorders rows.
type Store struct {
	dim  int
	data []float32

	// norms caches per-row L2 norms, computed in one pass on first search.
	norms []float64
}

// NewStore creates an empty store with the given dimension.
func NewStore(dim int) (*Store, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("dimension must be positive")
	}
	return &Store{dim: dim}, nil
}

// Dim returns the embedding dimension.
func (s *Store) Dim() int { return s.dim }

// Rows returns the number of stored embeddings.
func (s *Store) Rows() int { return len(s.data) / s.dim }

// Row returns the embedding at row i. The slice aliases the store's backing
// array and must not be modified.
func (s *Store) Row(i int) []float32 {
	return s.data[i*s.dim : (i+1)*s.dim]
}

// Append adds one embedding as the last row.
func (s *Store) Append(vec []float32) error {
	if len(vec) != s.dim {
		return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(vec), s.dim)
	}
	s.data = append(s.data, vec...)
	s.norms = nil
	return nil
}

// BuildOption configures a Build run.
type BuildOption func(*builder)

type builder struct {
	logger *zap.Logger
}

// WithLogger sets a logger for per-row degradation warnings.
func WithLogger(l *zap.Logger) BuildOption {
	return func(b *builder) { b.logger = l }
}

// Build embeds each body in order and collects the results into a store,
// preserving input order exactly. A provider failure on one body degrades
// that row to a zero vector and the build continues; only context
// cancellation aborts. The returned store always has exactly len(bodies) rows.
func Build(ctx context.Context, bodies []string, embedder embedding.Embedder, opts ...BuildOption) (*Store, error) {
	var b builder
	for _, opt := range opts {
		opt(&b)
	}

	store, err := NewStore(embedder.Dimensions())
	if err != nil {
		return nil, err
	}
	for i, body := range bodies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec, err := embedder.Embed(ctx, body)
		if err != nil || len(vec) != store.dim {
			if b.logger != nil {
				b.logger.Warn("embedding degraded to zero vector",
					zap.Int("row", i),
					zap.Error(err))
			}
			vec = embedding.ZeroVector(store.dim)
		}
		if err := store.Append(vec); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// Save writes the store to path as a raw float32 blob. The write goes to a
// temp file in the same directory and is renamed into place, so a concurrent
// Load never observes a partially written store.
func (s *Store) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &BuildError{Path: path, Err: err}
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return &BuildError{Path: path, Err: err}
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(float32SliceToBytes(s.data)); err != nil {
		cleanup()
		return &BuildError{Path: path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return &BuildError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return &BuildError{Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return &BuildError{Path: path, Err: err}
	}
	return nil
}

// Load reads the store at path and validates it against the expected record
// count and dimension. A byte count other than numRecords*dim*4 means the
// store is stale or truncated relative to the records table and yields a
// CorruptStoreError. numRecords == 0 yields a valid empty store.
func Load(path string, numRecords, dim int) (*Store, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("dimension must be positive")
	}
	if numRecords < 0 {
		return nil, fmt.Errorf("record count cannot be negative")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vector store: %w", err)
	}
	want := int64(numRecords) * int64(dim) * 4
	if int64(len(data)) != want {
		return nil, &CorruptStoreError{Path: path, GotBytes: int64(len(data)), WantBytes: want}
	}
	return &Store{dim: dim, data: bytesToFloat32Slice(data)}, nil
}

// Exists reports whether a store file is present at path. The session
// controller uses this to decide build-vs-load, so provider calls happen at
// most once per record unless the artifact is deleted.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// SizeBytes returns the byte size of the persisted form.
func (s *Store) SizeBytes() int64 {
	return int64(len(s.data)) * 4
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}
