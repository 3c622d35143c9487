package models

// Source is one consulted record, in retrieval-rank order.
type Source struct {
	URL   string  `json:"url"`
	Title string  `json:"title,omitempty"`
	Score float64 `json:"score"`
}

// AskResponse is the response for an ask request. Sources is always populated
// from retrieval, even when answer generation failed and Answer holds the
// fixed fallback text.
type AskResponse struct {
	Answer    string    `json:"answer"`
	Sources   []*Source `json:"sources"`
	Query     string    `json:"query"`
	QueryTime int64     `json:"query_time_ms"`
	// Degraded indicates the query embedding fell back to a zero vector
	// because the embedding provider failed; scores are not meaningful.
	Degraded bool `json:"degraded,omitempty"`
}

// SourceURLs returns the source URLs in retrieval-rank order.
func (r *AskResponse) SourceURLs() []string {
	urls := make([]string, len(r.Sources))
	for i, s := range r.Sources {
		urls[i] = s.URL
	}
	return urls
}
