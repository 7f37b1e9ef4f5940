package ports

import (
	"context"

	"github.com/bnema/mailbin/internal/domain"
)

// SessionStore persists the signed session token and the cached provider profile.
// An empty token and a nil profile mean nothing is stored.
type SessionStore interface {
	Get(ctx context.Context) (domain.SessionToken, error)
	Set(ctx context.Context, token domain.SessionToken) error
	GetProfile(ctx context.Context) (*domain.Profile, error)
	SetProfile(ctx context.Context, profile domain.Profile) error
	Clear(ctx context.Context) error
}
