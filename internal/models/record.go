// Package models defines core data structures for records, questions, and answers.
package models

import "time"

// NoTag is the tag value stored for records whose page carries no category labels.
const NoTag = "No Tag"

// Record is one corpus entry: a scraped page with its summarized body.
// Records form an ordered sequence; Position is the canonical row index
// shared with the vector store, so record i owns row i of the embedding matrix.
type Record struct {
	Position  int       `json:"position" db:"position"`
	URL       string    `json:"url" db:"url"`
	Title     string    `json:"title" db:"title"`
	Tag       string    `json:"tag" db:"tag"`
	Body      string    `json:"body" db:"body"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
