// Package storage defines persistence for the ordered records table.
package storage

import (
	"context"

	"github.com/hyperjump/kotae/internal/models"
)

// Storage defines record persistence. Records are append-once and ordered:
// AppendRecord assigns the next position, and ListRecords returns records in
// position order, which is the row order of the vector store.
type Storage interface {
	AppendRecord(ctx context.Context, rec *models.Record) error
	GetRecord(ctx context.Context, position int) (*models.Record, error)
	GetRecordByURL(ctx context.Context, url string) (*models.Record, error)
	ListRecords(ctx context.Context) ([]*models.Record, error)
	CountRecords(ctx context.Context) (int64, error)
	DeleteAllRecords(ctx context.Context) error

	Close() error
}
