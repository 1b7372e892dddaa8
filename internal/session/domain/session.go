package domain

import "time"

// Session represents a cookie-backed login session. Only the SHA-256 hash of
// the bearer token is stored; the raw token lives in the client cookie.
type Session struct {
	ID         string
	UserID     string
	TokenHash  string
	ExpiresAt  time.Time
	RevokedAt  *time.Time // nil when not revoked
	LastSeenAt *time.Time
	IPAddress  string
	CreatedAt  time.Time
}

// Live reports whether the session can still authenticate requests at the
// given time.
func (s *Session) Live(now time.Time) bool {
	if s == nil || s.RevokedAt != nil {
		return false
	}
	return now.Before(s.ExpiresAt)
}
