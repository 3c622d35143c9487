package vector

import (
	"fmt"
	"sort"
)

// Hit is a single retrieval result: a row index into the records table and
// its cosine similarity to the query. Hits carry indices rather than records
// so retrieval stays decoupled from record storage.
type Hit struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// Search scores the query against every row in one pass over the contiguous
// matrix and returns the top-K hits sorted by descending similarity. Exact
// ties keep ascending row order, so results are deterministic across runs.
// Returns min(topK, rows) hits; a zero-norm query or row scores 0.
func (s *Store) Search(query []float32, topK int) ([]Hit, error) {
	if len(query) != s.dim {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), s.dim)
	}
	rows := s.Rows()
	if topK <= 0 || rows == 0 {
		return nil, nil
	}

	s.ensureNorms()
	qnorm := L2Norm(query)

	hits := make([]Hit, rows)
	for i := 0; i < rows; i++ {
		score := 0.0
		if qnorm > 0 && s.norms[i] > 0 {
			score = Dot(query, s.Row(i)) / (qnorm * s.norms[i])
		}
		hits[i] = Hit{Index: i, Score: score}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if topK > len(hits) {
		topK = len(hits)
	}
	return hits[:topK], nil
}

// ensureNorms computes all row norms in a single batched pass. Cached until
// the matrix changes.
func (s *Store) ensureNorms() {
	if s.norms != nil && len(s.norms) == s.Rows() {
		return
	}
	rows := s.Rows()
	s.norms = make([]float64, rows)
	for i := 0; i < rows; i++ {
		s.norms[i] = L2Norm(s.Row(i))
	}
}
