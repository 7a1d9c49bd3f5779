package models

import "time"

// Session is a credential proving a prior successful authentication.
//
// For opaque sessions ID is the row id and Token a random hex string; for
// signed sessions ID is the JWT "jti" and Token the compact JWT.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
