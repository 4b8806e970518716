// Package models defines the client-side data shapes shared by the backend
// client, the auth store, the record collections and the router: users,
// sessions, auth state notifications and generic table records.
package models
