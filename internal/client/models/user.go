package models

import "time"

// User is the identity issued by the auth provider.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	Role         string         `json:"role,omitempty"`
	AppMetadata  map[string]any `json:"app_metadata,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at,omitzero"`
}

// AdminRole is the role value that grants access to admin-only routes.
const AdminRole = "admin"

// IsAdmin reports whether the user carries an admin flag. The flag is read
// from app_metadata (is_admin or role) because user_metadata is writable by
// the user themselves.
func (u *User) IsAdmin() bool {
	if u == nil {
		return false
	}
	if u.Role == AdminRole {
		return true
	}
	if flag, ok := u.AppMetadata["is_admin"].(bool); ok && flag {
		return true
	}
	role, _ := u.AppMetadata["role"].(string)
	return role == AdminRole
}
