package auth

import (
	"errors"
	"time"

	"github.com/bnema/mailbin/internal/domain"
	"golang.org/x/oauth2"
)

// CredentialFromToken maps an oauth2 token to the provider credential.
// expires_in falls back to the remaining lifetime when the provider omitted it.
func CredentialFromToken(token *oauth2.Token, now time.Time) (domain.Credential, error) {
	if token == nil || token.AccessToken == "" {
		return domain.Credential{}, errors.New("token response missing access token")
	}

	credential := domain.Credential{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.Type(),
		ExpiresIn:    token.ExpiresIn,
	}
	if scope, ok := token.Extra("scope").(string); ok {
		credential.Scope = scope
	}
	if credential.ExpiresIn <= 0 && !token.Expiry.IsZero() {
		if remaining := token.Expiry.Sub(now); remaining > 0 {
			credential.ExpiresIn = int64(remaining / time.Second)
		}
	}

	return credential, nil
}
