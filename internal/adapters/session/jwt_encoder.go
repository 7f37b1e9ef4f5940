package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/mailbin/internal/domain"
	"github.com/bnema/mailbin/internal/ports"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const DefaultTTL = 24 * time.Hour

// CustomClaims mirrors the credential subset the backend reads from the token.
type CustomClaims struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiryDate   int64  `json:"expiry_date,omitempty"`
}

type Claims struct {
	Custom CustomClaims `json:"custom"`
	jwt.RegisteredClaims
}

// JWTEncoder signs session tokens with HS256 using a shared secret.
type JWTEncoder struct {
	secret []byte
	ttl    time.Duration
	clock  ports.Clock
}

var _ ports.SessionEncoder = (*JWTEncoder)(nil)

// NewJWTEncoder refuses to build an encoder that would produce unusable tokens.
func NewJWTEncoder(secret string, ttl time.Duration, clock ports.Clock) (*JWTEncoder, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, domain.ErrMissingSigningSecret
	}
	if ttl <= 0 {
		return nil, domain.ErrInvalidSessionTTL
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &JWTEncoder{secret: []byte(secret), ttl: ttl, clock: clock}, nil
}

func (e *JWTEncoder) Encode(credential domain.Credential) (domain.SessionToken, error) {
	if credential.AccessToken == "" {
		return "", errors.New("credential is missing access token")
	}

	now := e.clock.Now().UTC().Truncate(time.Second)
	claims := Claims{
		Custom: CustomClaims{
			AccessToken:  credential.AccessToken,
			RefreshToken: credential.RefreshToken,
			Scope:        credential.Scope,
			TokenType:    credential.TokenType,
			ExpiryDate:   credential.ExpiresIn,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(e.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(e.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}

	return domain.SessionToken(signed), nil
}

func (e *JWTEncoder) Decode(token domain.SessionToken) (domain.SessionClaims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(string(token), &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return e.secret, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(e.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.SessionClaims{}, domain.ErrSessionExpired
		}
		return domain.SessionClaims{}, fmt.Errorf("%w: %v", domain.ErrInvalidSession, err)
	}

	decoded := domain.SessionClaims{
		AccessToken:  claims.Custom.AccessToken,
		RefreshToken: claims.Custom.RefreshToken,
		Scope:        claims.Custom.Scope,
		TokenType:    claims.Custom.TokenType,
		ExpiryDate:   claims.Custom.ExpiryDate,
		ID:           claims.ID,
	}
	if claims.ExpiresAt != nil {
		decoded.ExpiresAt = claims.ExpiresAt.Time
	}
	if claims.IssuedAt != nil {
		decoded.IssuedAt = claims.IssuedAt.Time
	}

	return decoded, nil
}
