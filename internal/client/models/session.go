package models

import "time"

// Session is the server-issued proof of authentication together with its
// expiry and refresh metadata. The JSON shape matches what GoTrue returns and
// what gets persisted in local storage.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	User         *User  `json:"user,omitempty"`
}

// Expiry returns the absolute expiry time, or the zero time when unknown.
func (s *Session) Expiry() time.Time {
	if s == nil || s.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.Unix(s.ExpiresAt, 0)
}

// ExpiresWithin reports whether the session expires before now+d.
// Sessions without a known expiry never report as expiring.
func (s *Session) ExpiresWithin(now time.Time, d time.Duration) bool {
	exp := s.Expiry()
	if exp.IsZero() {
		return false
	}
	return !now.Add(d).Before(exp)
}

// Valid reports whether the session carries an access token.
func (s *Session) Valid() bool {
	return s != nil && s.AccessToken != ""
}
