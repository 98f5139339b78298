package models

import "time"

// Session is the authenticated context the sync manager uploads under.
// A nil ExpiresAt means the token carries no expiry.
type Session struct {
	Token     string
	JourneyID string
	UserID    string
	Email     string
	ExpiresAt *time.Time
}

// Expired reports whether the session's token is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}
