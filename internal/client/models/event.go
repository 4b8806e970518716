package models

// AuthEvent names an auth state transition reported by the provider.
type AuthEvent string

const (
	EventInitialSession AuthEvent = "INITIAL_SESSION"
	EventSignedIn       AuthEvent = "SIGNED_IN"
	EventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
	EventSignedOut      AuthEvent = "SIGNED_OUT"
)

// AuthChange is one auth state notification. Session is nil on sign-out.
type AuthChange struct {
	Event   AuthEvent
	Session *Session
}
