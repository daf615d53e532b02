// Package storage persists verification history.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hyperjump/ragcheck/internal/verify"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Record sources.
const (
	SourceAPI   = "api"
	SourceCLI   = "cli"
	SourceWatch = "watch"
)

// Record is one stored verification: its inputs and its result.
type Record struct {
	ID        string         `json:"id"`
	CaseName  string         `json:"case_name,omitempty"`
	Source    string         `json:"source"`
	Response  string         `json:"response"`
	Context   verify.Context `json:"context"`
	Result    verify.Result  `json:"result"`
	CreatedAt time.Time      `json:"created_at"`
}

// Store defines verification history persistence operations.
type Store interface {
	// SaveRecord assigns an ID (when empty) and creation time, then inserts rec.
	SaveRecord(ctx context.Context, rec *Record) error
	GetRecord(ctx context.Context, id string) (*Record, error)
	// ListRecords returns records newest first.
	ListRecords(ctx context.Context, offset, limit int) ([]*Record, error)
	DeleteRecord(ctx context.Context, id string) error
	CountRecords(ctx context.Context) (int64, error)
	Close() error
}
