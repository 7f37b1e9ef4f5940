package domain

import "time"

// SessionToken is the signed, time-bounded artifact persisted for a session.
// The zero value means no session.
type SessionToken string

func (t SessionToken) IsZero() bool {
	return t == ""
}

// SessionClaims is the decoded payload of a SessionToken.
type SessionClaims struct {
	AccessToken  string
	RefreshToken string
	Scope        string
	TokenType    string
	ExpiryDate   int64
	IssuedAt     time.Time
	ExpiresAt    time.Time
	ID           string
}

func (c SessionClaims) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}

type SessionState string

const (
	SessionUnauthenticated SessionState = "unauthenticated"
	SessionAuthenticating  SessionState = "authenticating"
	SessionAuthenticated   SessionState = "authenticated"
	SessionExpired         SessionState = "expired"
)

var sessionTransitions = map[SessionState][]SessionState{
	SessionUnauthenticated: {SessionAuthenticating},
	SessionAuthenticating:  {SessionAuthenticated, SessionUnauthenticated},
	SessionAuthenticated:   {SessionExpired, SessionUnauthenticated, SessionAuthenticating},
	SessionExpired:         {SessionUnauthenticated},
}

// CanTransition reports whether the session lifecycle allows moving from s to next.
// Signing out of an authenticated session and re-running consent are both allowed.
func (s SessionState) CanTransition(next SessionState) bool {
	for _, allowed := range sessionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
