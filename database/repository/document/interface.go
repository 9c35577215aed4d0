package documentRepo

import (
	"context"
	"errors"

	"kvrdesk/models"
)

var (
	// ErrNoChanges tells Update that the mutation left the document untouched.
	ErrNoChanges = errors.New("documentRepo: no changes")
	// ErrConflict is returned when optimistic retries are exhausted.
	ErrConflict = errors.New("documentRepo: concurrent modification")
)

// DocumentStore owns the persisted appointments, bookings and pending confirmations.
type DocumentStore interface {
	// Load returns a fresh copy of the document, creating the empty skeleton on first run.
	Load(ctx context.Context) (*models.Document, error)
	// Save overwrites the whole document.
	Save(ctx context.Context, doc *models.Document) error
	// Update loads, applies fn and commits as one unit. If fn fails nothing is written.
	Update(ctx context.Context, fn func(doc *models.Document) error) error
	Ping(ctx context.Context) error
}
