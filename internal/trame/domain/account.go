package domain

import "time"

// Account is the single tenant of the service. Created once via signup and
// immutable afterwards.
type Account struct {
	ID           string
	Username     string
	PasswordHash string // argon2id encoded (PHC format)
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
