package sqlite

import (
	"context"

	"github.com/aussiebroadwan/trame/internal/trame/domain"
	"github.com/aussiebroadwan/trame/pkg/idx"
)

type notesRepo struct {
	db dbtx
}

// Upsert relies on the UNIQUE(owner_id) constraint: one note per owner,
// enforced by the database rather than a read-then-write race.
func (r *notesRepo) Upsert(ctx context.Context, ownerID, content string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notes (id, owner_id, content, created_at, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		 ON CONFLICT(owner_id) DO UPDATE
		 SET content = excluded.content, updated_at = CURRENT_TIMESTAMP`,
		idx.New().String(), ownerID, content)
	return err
}

func (r *notesRepo) Get(ctx context.Context, ownerID string) (domain.Note, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, content, created_at, updated_at
		 FROM notes WHERE owner_id = ?`, ownerID)

	var n domain.Note
	if err := row.Scan(&n.ID, &n.OwnerID, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return domain.Note{}, mapNotFound(err)
	}
	return n, nil
}
