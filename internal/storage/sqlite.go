package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/kotae/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	// position is assigned by AppendRecord, not AUTOINCREMENT: after
	// DeleteAllRecords the sequence must restart at 0 so row indices stay
	// aligned with a freshly built vector store.
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		position INTEGER PRIMARY KEY,
		url TEXT NOT NULL UNIQUE,
		title TEXT,
		tag TEXT,
		body TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_records_url ON records(url);
	`
	_, err := db.Exec(schema)
	return err
}

// AppendRecord inserts rec at the next position and writes the assigned
// position back into rec. The insert and the position query run in one
// transaction so concurrent appends cannot claim the same row.
func (s *SQLiteStorage) AppendRecord(ctx context.Context, rec *models.Record) error {
	if rec.Body == "" {
		return fmt.Errorf("record body cannot be empty: %s", rec.URL)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var next int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position)+1, 0) FROM records`,
	).Scan(&next); err != nil {
		return err
	}

	rec.Position = next
	rec.CreatedAt = time.Now()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO records (position, url, title, tag, body, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Position, rec.URL, rec.Title, rec.Tag, rec.Body, rec.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return tx.Commit()
}

// GetRecord returns the record at the given position.
func (s *SQLiteStorage) GetRecord(ctx context.Context, position int) (*models.Record, error) {
	var rec models.Record
	err := s.db.QueryRowContext(ctx,
		`SELECT position, url, title, tag, body, created_at
		 FROM records WHERE position = ?`, position,
	).Scan(&rec.Position, &rec.URL, &rec.Title, &rec.Tag, &rec.Body, &rec.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("record not found: position %d", position)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetRecordByURL returns the record with the given URL.
func (s *SQLiteStorage) GetRecordByURL(ctx context.Context, url string) (*models.Record, error) {
	var rec models.Record
	err := s.db.QueryRowContext(ctx,
		`SELECT position, url, title, tag, body, created_at
		 FROM records WHERE url = ?`, url,
	).Scan(&rec.Position, &rec.URL, &rec.Title, &rec.Tag, &rec.Body, &rec.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("record not found: %s", url)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListRecords returns all records in position order.
func (s *SQLiteStorage) ListRecords(ctx context.Context) ([]*models.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, url, title, tag, body, created_at
		 FROM records ORDER BY position`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.Record
	for rows.Next() {
		var rec models.Record
		if err := rows.Scan(&rec.Position, &rec.URL, &rec.Title, &rec.Tag, &rec.Body, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// CountRecords returns the total number of records.
func (s *SQLiteStorage) CountRecords(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&count)
	return count, err
}

// DeleteAllRecords removes every record. Used by forced rebuilds; the vector
// store file must be discarded alongside or the next load will reject it.
func (s *SQLiteStorage) DeleteAllRecords(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM records`)
	return err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
