package common

const (
	// APIKeyHeaderName carries the project's anon key on every backend request.
	APIKeyHeaderName = "apikey"

	// AuthorizationHeaderName carries the bearer token on backend requests.
	AuthorizationHeaderName = "Authorization"

	// SessionStorageKey is the local storage key holding the serialized session.
	SessionStorageKey = "supabase.session"
)
