package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/ensemble/internal/contact"
	"github.com/roach88/ensemble/internal/value"
)

// ContactSummary is one row of a contact listing.
type ContactSummary struct {
	ID          string
	DisplayName string
	Revision    string
}

// PendingDiff is a queued diff awaiting application.
type PendingDiff struct {
	Seq  int64
	ID   string
	Diff contact.Diff
}

// GetContact returns the record stored under id.
// Returns ErrNotFound if id does not exist.
func (s *Store) GetContact(ctx context.Context, id string) (*contact.Record, error) {
	rec, err := readContact(ctx, s.db, id)
	if err != nil {
		return nil, fmt.Errorf("get contact: %w", err)
	}
	return rec, nil
}

func readContact(ctx context.Context, q queryer, id string) (*contact.Record, error) {
	var recordJSON string
	err := q.QueryRowContext(ctx, `SELECT record FROM contacts WHERE id = ?`, id).Scan(&recordJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query contact: %w", err)
	}
	return unmarshalRecord(recordJSON)
}

// ListContacts returns every stored contact ordered by id.
// Returns an empty slice (not nil) if the store is empty.
func (s *Store) ListContacts(ctx context.Context) ([]ContactSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, display_name, revision
		FROM contacts
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query contacts: %w", err)
	}
	defer rows.Close()

	summaries := []ContactSummary{}
	for rows.Next() {
		var c ContactSummary
		if err := rows.Scan(&c.ID, &c.DisplayName, &c.Revision); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		summaries = append(summaries, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}

	return summaries, nil
}

// CountData returns the number of contact_data rows held for id.
func (s *Store) CountData(ctx context.Context, id string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contact_data WHERE contact_id = ?`, id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count contact data: %w", err)
	}
	return n, nil
}

// FindByValue returns the ids of contacts whose list field holds an element
// equal to v, ordered by id.
func (s *Store) FindByValue(ctx context.Context, field string, v value.Value) ([]string, error) {
	valueJSON, err := marshalValue(v)
	if err != nil {
		return nil, fmt.Errorf("find by value: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT contact_id
		FROM contact_data
		WHERE field = ? AND value = ?
		ORDER BY contact_id COLLATE BINARY ASC
	`, field, valueJSON)
	if err != nil {
		return nil, fmt.Errorf("find by value: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan contact id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contact ids: %w", err)
	}
	return ids, nil
}

// PendingDiffs returns the queued diffs of a contact in arrival order.
// Returns an empty slice (not nil) if none are queued.
func (s *Store) PendingDiffs(ctx context.Context, contactID string) ([]PendingDiff, error) {
	pending, err := readPending(ctx, s.db, contactID)
	if err != nil {
		return nil, fmt.Errorf("pending diffs: %w", err)
	}
	return pending, nil
}

func readPending(ctx context.Context, q queryer, contactID string) ([]PendingDiff, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT seq, id, diff
		FROM pending_diffs
		WHERE contact_id = ?
		ORDER BY seq ASC
	`, contactID)
	if err != nil {
		return nil, fmt.Errorf("query pending diffs: %w", err)
	}
	defer rows.Close()

	pending := []PendingDiff{}
	for rows.Next() {
		var (
			p        PendingDiff
			diffJSON string
		)
		if err := rows.Scan(&p.Seq, &p.ID, &diffJSON); err != nil {
			return nil, fmt.Errorf("scan pending diff: %w", err)
		}
		if p.Diff, err = unmarshalDiff(diffJSON); err != nil {
			return nil, err
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending diffs: %w", err)
	}
	return pending, nil
}
