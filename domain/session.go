package domain

import "time"

// Session is a named chat room. The (Name, IsPrivate) pair is effectively
// unique: initializing a session with the same pair reuses the existing row.
type Session struct {
	ID        string
	Name      string
	IsPrivate bool
	CreatedAt time.Time
}
