package client

import (
	"context"

	"github.com/dmitrijs2005/gopanel/internal/client/models"
)

// AuthProvider is the external authentication service.
type AuthProvider interface {
	// SignInWithPassword authenticates and emits SIGNED_IN.
	SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error)
	// SignUp registers a user. A nil session with a nil error means the
	// account awaits email confirmation; no notification is emitted then.
	SignUp(ctx context.Context, email, password string) (*models.Session, error)
	// SignOut ends the session and emits SIGNED_OUT.
	SignOut(ctx context.Context) error
	// RefreshSession trades the refresh token for a new session and emits
	// TOKEN_REFRESHED.
	RefreshSession(ctx context.Context) (*models.Session, error)
	// SetSession restores a previously persisted session without notifying.
	SetSession(s *models.Session)
	// OnAuthStateChange registers fn for auth notifications and returns a
	// function that removes it.
	OnAuthStateChange(fn func(models.AuthChange)) (unsubscribe func())
}

// TableClient is remote table access filtered by equality on the id column.
type TableClient interface {
	Select(ctx context.Context, table string) ([]models.Record, error)
	Insert(ctx context.Context, table string, rec models.Record) (models.Record, error)
	Update(ctx context.Context, table string, id any, patch models.Record) (models.Record, error)
	Delete(ctx context.Context, table string, id any) error
}
