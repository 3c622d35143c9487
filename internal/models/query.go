package models

import "fmt"

// AskQuery represents a question with retrieval options.
type AskQuery struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// Validate ensures the query has valid fields and sets defaults.
// Returns an error if the question is empty; otherwise normalizes TopK.
func (q *AskQuery) Validate() error {
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.TopK <= 0 {
		q.TopK = 3
	}
	if q.TopK > 20 {
		q.TopK = 20
	}
	return nil
}
