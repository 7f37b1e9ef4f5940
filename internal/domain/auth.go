package domain

import "time"

// Credential is the raw OAuth grant returned by the identity provider.
// It is only held in memory while a session token is being encoded.
type Credential struct {
	AccessToken  string
	RefreshToken string
	Scope        string
	TokenType    string
	ExpiresIn    int64
}

type ConsentResultType string

const (
	ConsentSuccess ConsentResultType = "success"
	ConsentCancel  ConsentResultType = "cancel"
	ConsentError   ConsentResultType = "error"
)

// ConsentResult is the one-shot outcome of a provider consent prompt.
// Credential is set only for ConsentSuccess and Err only for ConsentError.
type ConsentResult struct {
	Type       ConsentResultType
	Credential *Credential
	Err        error
}

func ConsentSucceeded(credential Credential) ConsentResult {
	return ConsentResult{Type: ConsentSuccess, Credential: &credential}
}

func ConsentCancelled() ConsentResult {
	return ConsentResult{Type: ConsentCancel}
}

func ConsentFailed(err error) ConsentResult {
	return ConsentResult{Type: ConsentError, Err: err}
}

// Profile is the identity provider's userinfo document, cached under the profile key.
type Profile struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
	Locale        string `json:"locale,omitempty"`
}

// DisplayName prefers the full name and falls back to the email address.
func (p Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Email
}

// ExpiresAt resolves the provider's relative lifetime against issuedAt.
func (c Credential) ExpiresAt(issuedAt time.Time) time.Time {
	if c.ExpiresIn <= 0 {
		return time.Time{}
	}
	return issuedAt.Add(time.Duration(c.ExpiresIn) * time.Second)
}
