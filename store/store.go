/*
store.go - Persistence interface for assessment history

PURPOSE:
  Defines the interface between the HTTP host and the database. The engine
  itself is pure; only finished assessments are persisted, together with the
  request that produced them so any record can be replayed.

KEY INTERFACES:
  AssessmentStore: save, fetch, list and delete assessment records

RECORD FORMAT:
  Request and Result are stored as opaque JSON documents. Only the columns
  needed for listing (facing, period, overall score, created_at) are broken
  out.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite, used by cmd/server
  - store/memory.go: In-memory for testing

SEE ALSO:
  - api/handlers.go: the only writer
  - factory/assessment.go: the request JSON shape
*/
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/qiflow/flyingstar/xuankong"
)

// ErrAssessmentNotFound is returned by Get and Delete for an unknown ID.
var ErrAssessmentNotFound = errors.New("assessment not found")

// IsNotFound returns true if the error means the record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAssessmentNotFound)
}

// Record is one persisted assessment.
type Record struct {
	ID            string          `json:"id"`
	FacingDegrees float64         `json:"facing_degrees"`
	Period        xuankong.Period `json:"period"`
	OverallScore  decimal.Decimal `json:"overall_score"`
	Request       json.RawMessage `json:"request"`
	Result        json.RawMessage `json:"result"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ListFilter narrows List. Zero fields do not filter.
type ListFilter struct {
	Period xuankong.Period
	Limit  int
}

// AssessmentStore persists assessment records.
type AssessmentStore interface {
	// Save stores a record. An empty ID is replaced with a new UUID and a
	// zero CreatedAt with the current time; the stored record is returned.
	Save(ctx context.Context, rec Record) (Record, error)

	// Get returns the record with the given ID or ErrAssessmentNotFound.
	Get(ctx context.Context, id string) (Record, error)

	// List returns records newest first.
	List(ctx context.Context, filter ListFilter) ([]Record, error)

	// Delete removes a record or returns ErrAssessmentNotFound.
	Delete(ctx context.Context, id string) error
}

// Prepare fills the ID and CreatedAt of a record about to be saved.
func Prepare(rec Record) Record {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.CreatedAt = rec.CreatedAt.UTC().Truncate(time.Second)
	return rec
}
