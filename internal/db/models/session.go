package models

import "time"

// Session represents a server-side login session. The session row is the
// revocation anchor for the JWT that carries its ID: sign-out marks the row
// revoked and the token stops validating even though the JWT itself is
// still cryptographically sound.
type Session struct {
	ID         string     `json:"id"`
	IdentityID string     `json:"identity_id"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
}

// Live reports whether the session is usable at the given instant
func (s *Session) Live(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
