// Package client holds the client-side ports to the hosted backend and
// their implementations.
//
// # Overview
//
// The package provides:
//  1. Two transport-agnostic contracts: AuthProvider (sign-in, sign-up,
//     sign-out, refresh and auth state notifications) and TableClient
//     (select, insert, update by id, delete by id on a named table).
//  2. SupabaseClient, which speaks GoTrue and PostgREST over HTTP. It keeps
//     the current session, authorizes table calls with it, and refreshes an
//     expired access token once before giving up, much like a gRPC
//     interceptor would.
//  3. PostgresTables, a TableClient talking straight to Postgres through the
//     pgx stdlib driver.
//  4. MemoryBackend, an in-process AuthProvider and TableClient for offline
//     and demo use.
//  5. Local persistence bootstrap (InitDatabase, RunMigrations) wiring a
//     SQLite database and applying embedded goose migrations.
//
// # Notifications
//
// Auth state listeners are called synchronously, in registration order, on
// the goroutine that caused the change, and before the call that caused it
// returns.
//
// # Error Handling
//
// Remote failures surface as *APIError, whose Error() is the backend's
// human-readable message. Common conditions match the sentinel errors with
// errors.Is: ErrUnavailable, ErrUnauthorized, ErrNotFound, ErrNoSession and
// ErrInvalidCredentials.
package client
