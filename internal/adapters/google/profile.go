package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/bnema/mailbin/internal/domain"
	"github.com/bnema/mailbin/internal/ports"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	DefaultUserInfoURL = "https://www.googleapis.com/userinfo/v2/me"
	maxProfileBytes    = 1 << 20
)

// ProfileClient reads the signed-in user's Google profile. It is best effort.
type ProfileClient struct {
	UserInfoURL string
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

var _ ports.ProfileFetcher = (*ProfileClient)(nil)

func (c *ProfileClient) FetchProfile(ctx context.Context, accessToken string) *domain.Profile {
	profile, err := c.fetch(ctx, accessToken)
	if err != nil {
		c.logger().Warn("fetch user profile failed", zap.Error(err))
		return nil
	}
	return profile
}

func (c *ProfileClient) fetch(ctx context.Context, accessToken string) (*domain.Profile, error) {
	if accessToken == "" {
		return nil, errors.New("access token is required")
	}

	if c.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.HTTPClient)
	}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("create userinfo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request userinfo: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("userinfo endpoint returned status %d", resp.StatusCode)
	}

	var profile domain.Profile
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxProfileBytes)).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode userinfo response: %w", err)
	}
	if profile.ID == "" && profile.Email == "" {
		return nil, errors.New("userinfo response missing id and email")
	}

	return &profile, nil
}

func (c *ProfileClient) userInfoURL() string {
	if c.UserInfoURL != "" {
		return c.UserInfoURL
	}
	return DefaultUserInfoURL
}

func (c *ProfileClient) logger() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return zap.NewNop()
}
