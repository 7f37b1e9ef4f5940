package domain

import "errors"

var (
	ErrKeyNotFound          = errors.New("key not found")
	ErrMissingSigningSecret = errors.New("session signing secret is not configured")
	ErrInvalidSessionTTL    = errors.New("session ttl must be positive")
	ErrSessionExpired       = errors.New("session expired")
	ErrInvalidSession       = errors.New("invalid session token")
	ErrConsentCancelled     = errors.New("consent cancelled")
	ErrConsentFailed        = errors.New("consent failed")
)
