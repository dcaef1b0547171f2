package domain

import "time"

// Identity is a registered end-user record. Identities are immutable once
// created; there is no update or delete path in this service.
type Identity struct {
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
