package client

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/gopanel/internal/client/models"
	"github.com/dmitrijs2005/gopanel/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// tokenClaims is the subset of a GoTrue access token the client reads.
type tokenClaims struct {
	jwt.RegisteredClaims
	Email        string         `json:"email,omitempty"`
	Role         string         `json:"role,omitempty"`
	AppMetadata  map[string]any `json:"app_metadata,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// parseClaims decodes an access token without verifying its signature. The
// client never holds the signing secret; it only needs expiry and identity.
func parseClaims(token string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	return claims, nil
}

// completeSession fills expires_at and user from expires_in and the token
// claims when the backend response omits them.
func completeSession(s *models.Session, now time.Time) {
	if s.ExpiresAt == 0 && s.ExpiresIn > 0 {
		s.ExpiresAt = now.Unix() + s.ExpiresIn
	}
	if s.ExpiresAt != 0 && s.User != nil {
		return
	}

	claims, err := parseClaims(s.AccessToken)
	if err != nil {
		return
	}
	if s.ExpiresAt == 0 && claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Unix()
	}
	if s.User == nil {
		s.User = &models.User{
			ID:           claims.Subject,
			Email:        claims.Email,
			Role:         claims.Role,
			AppMetadata:  claims.AppMetadata,
			UserMetadata: claims.UserMetadata,
		}
	}
}
