package store

import (
	"context"

	"github.com/mkarlsen/tidelist/internal/todo"
)

// InsertItem creates a new, uncompleted item for ownerID and returns its id.
//
// The store assigns the id (UUIDv7), the creation sequence (Clock.Next) and
// the wall-clock timestamp. Subscribers of ownerID are notified after the
// write commits.
func (s *Store) InsertItem(ctx context.Context, ownerID, text string) (string, error) {
	if ownerID == "" {
		return "", &StorageError{Code: CodePermissionDenied, Op: "insert item"}
	}

	id := s.ids.NewID()
	seq := s.clock.Next()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (id, owner_id, text, completed, created_seq, created_at)
		VALUES (?, ?, ?, 0, ?, ?)
	`, id, ownerID, text, seq, s.now().UTC())
	if err != nil {
		return "", ioError("insert item", err)
	}

	s.notifyOwner(ctx, ownerID)
	return id, nil
}

// ToggleItem atomically flips the completed flag of the item. The flip
// happens in SQL so concurrent toggles from multiple clients are
// last-write-wins at the database, never a read-modify-write race in Go.
//
// Returns not-found if no item with that id exists for ownerID. An item
// owned by another principal is indistinguishable from a missing one.
func (s *Store) ToggleItem(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return &StorageError{Code: CodePermissionDenied, Op: "toggle item"}
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE items SET completed = 1 - completed
		WHERE id = ? AND owner_id = ?
	`, id, ownerID)
	if err != nil {
		return ioError("toggle item", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return ioError("toggle item", err)
	}
	if n == 0 {
		return notFound("toggle item")
	}

	s.notifyOwner(ctx, ownerID)
	return nil
}

// SetItemCompleted writes an explicit completed value. ToggleItem is the
// normal path; this exists for clients that already know the target state.
func (s *Store) SetItemCompleted(ctx context.Context, ownerID, id string, completed bool) error {
	if ownerID == "" {
		return &StorageError{Code: CodePermissionDenied, Op: "update item"}
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE items SET completed = ?
		WHERE id = ? AND owner_id = ?
	`, completed, id, ownerID)
	if err != nil {
		return ioError("update item", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return ioError("update item", err)
	}
	if n == 0 {
		return notFound("update item")
	}

	s.notifyOwner(ctx, ownerID)
	return nil
}

// DeleteItem removes the item. Idempotent: deleting an id that does not
// exist (or was already deleted) is a no-op, not an error, and emits no
// notification.
func (s *Store) DeleteItem(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return &StorageError{Code: CodePermissionDenied, Op: "delete item"}
	}

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM items WHERE id = ? AND owner_id = ?
	`, id, ownerID)
	if err != nil {
		return ioError("delete item", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return ioError("delete item", err)
	}
	if n == 0 {
		// Already gone. Nothing changed, so nothing to notify.
		return nil
	}

	s.notifyOwner(ctx, ownerID)
	return nil
}

// ItemsByOwner returns ownerID's items ordered newest-first.
//
// The ordering (created_seq DESC, id ASC as tiebreak) is the canonical
// snapshot order; live query notifications carry result sets produced by
// this same query.
func (s *Store) ItemsByOwner(ctx context.Context, ownerID string) ([]todo.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, text, completed, created_seq, created_at
		FROM items
		WHERE owner_id = ?
		ORDER BY created_seq DESC, id ASC
	`, ownerID)
	if err != nil {
		return nil, ioError("query items", err)
	}
	defer rows.Close()

	items := make([]todo.Item, 0, 16)
	for rows.Next() {
		var it todo.Item
		if err := rows.Scan(&it.ID, &it.OwnerID, &it.Text, &it.Completed,
			&it.CreatedSeq, &it.CreatedAt); err != nil {
			return nil, ioError("scan item", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, ioError("query items", err)
	}
	return items, nil
}
