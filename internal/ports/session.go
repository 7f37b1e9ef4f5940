package ports

import (
	"context"

	"github.com/bnema/mailbin/internal/domain"
)

type CredentialBroker interface {
	Prompt(ctx context.Context) domain.ConsentResult
}

type SessionEncoder interface {
	Encode(credential domain.Credential) (domain.SessionToken, error)
	Decode(token domain.SessionToken) (domain.SessionClaims, error)
}

// DigestFetcher never fails: every error is logged and degrades to an empty result.
type DigestFetcher interface {
	FetchDigests(ctx context.Context, baseURL string, token domain.SessionToken) []domain.NewsletterDigest
}

// ProfileFetcher is best effort and returns nil on any failure.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, accessToken string) *domain.Profile
}
