package domain

import "time"

// Note is the single durable document per account. Created implicitly on the
// first flushed edit, overwritten by every flush after that.
type Note struct {
	ID        string
	OwnerID   string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
