package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/roach88/ensemble/internal/contact"
)

// SaveContact inserts or replaces a record and returns its id.
// An empty id assigns a new UUID.
//
// The contact_data rows of the record are rewritten in the same
// transaction: one row per element of every list field.
func (s *Store) SaveContact(ctx context.Context, id string, rec *contact.Record) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("save contact: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := writeContact(ctx, tx, id, rec); err != nil {
		return "", fmt.Errorf("save contact: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("save contact: commit: %w", err)
	}

	s.logger.Debug("contact saved", zap.String("id", id))
	return id, nil
}

func writeContact(ctx context.Context, q queryer, id string, rec *contact.Record) error {
	recordJSON, err := marshalRecord(rec)
	if err != nil {
		return err
	}
	revision, err := rec.Hash()
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO contacts (id, revision, display_name, record)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			revision = excluded.revision,
			display_name = excluded.display_name,
			record = excluded.record
	`, id, revision, rec.DisplayName(contact.GivenFirst), recordJSON)
	if err != nil {
		return fmt.Errorf("upsert contact: %w", err)
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM contact_data WHERE contact_id = ?`, id); err != nil {
		return fmt.Errorf("clear contact data: %w", err)
	}

	for _, f := range rec.Schema().Fields() {
		if !f.Shape.IsList() {
			continue
		}
		for pos, elem := range rec.List(f.Name) {
			valueJSON, err := marshalValue(elem)
			if err != nil {
				return fmt.Errorf("%s[%d]: %w", f.Name, pos, err)
			}
			_, err = q.ExecContext(ctx, `
				INSERT INTO contact_data (contact_id, field, position, value)
				VALUES (?, ?, ?, ?)
			`, id, f.Name, pos, valueJSON)
			if err != nil {
				return fmt.Errorf("insert contact data %s[%d]: %w", f.Name, pos, err)
			}
		}
	}
	return nil
}

// DeleteContact removes a record together with its data rows and pending
// diffs. Returns ErrNotFound if id does not exist.
func (s *Store) DeleteContact(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete contact: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete contact %s: %w", id, ErrNotFound)
	}

	s.logger.Debug("contact deleted", zap.String("id", id))
	return nil
}

// QueueDiff stores d for later application to a contact and returns the
// diff's content hash.
// Uses ON CONFLICT DO NOTHING: queuing the same diff twice for one contact
// is a no-op until it has been applied.
func (s *Store) QueueDiff(ctx context.Context, contactID string, d contact.Diff) (string, error) {
	id, err := d.Hash()
	if err != nil {
		return "", fmt.Errorf("queue diff: %w", err)
	}
	diffJSON, err := marshalDiff(d)
	if err != nil {
		return "", fmt.Errorf("queue diff: %w", err)
	}

	if err := requireContact(ctx, s.db, contactID); err != nil {
		return "", fmt.Errorf("queue diff: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pending_diffs (id, contact_id, diff)
		VALUES (?, ?, ?)
		ON CONFLICT(contact_id, id) DO NOTHING
	`, id, contactID, diffJSON)
	if err != nil {
		return "", fmt.Errorf("queue diff: %w", err)
	}

	s.logger.Debug("diff queued", zap.String("contact", contactID), zap.String("diff", id))
	return id, nil
}

// ApplyPending applies every queued diff of a contact in arrival order and
// saves the result, all inside one transaction. If any diff fails to apply,
// nothing changes. Returns the updated record and the number of diffs
// applied.
func (s *Store) ApplyPending(ctx context.Context, contactID string) (*contact.Record, int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("apply pending: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	rec, err := readContact(ctx, tx, contactID)
	if err != nil {
		return nil, 0, fmt.Errorf("apply pending: %w", err)
	}

	pending, err := readPending(ctx, tx, contactID)
	if err != nil {
		return nil, 0, fmt.Errorf("apply pending: %w", err)
	}
	if len(pending) == 0 {
		return rec, 0, nil
	}

	for _, p := range pending {
		if _, err := rec.ApplyDiff(p.Diff); err != nil {
			return nil, 0, fmt.Errorf("apply pending diff %s: %w", p.ID, err)
		}
	}

	if err := writeContact(ctx, tx, contactID, rec); err != nil {
		return nil, 0, fmt.Errorf("apply pending: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM pending_diffs WHERE contact_id = ?`, contactID); err != nil {
		return nil, 0, fmt.Errorf("apply pending: clear queue: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("apply pending: commit: %w", err)
	}

	s.logger.Info("pending diffs applied",
		zap.String("contact", contactID),
		zap.Int("count", len(pending)))
	return rec, len(pending), nil
}

func requireContact(ctx context.Context, q queryer, id string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM contacts WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return err
}
