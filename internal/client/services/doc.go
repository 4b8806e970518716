// Package services holds the client-side state containers: the auth store
// that mirrors the provider's session into local storage, and the record
// collection that mirrors one remote table into an ordered list.
package services
