package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bnema/mailbin/internal/domain"
	"github.com/bnema/mailbin/internal/ports"
	"go.uber.org/zap"
)

const (
	DefaultNewslettersPath = "/emails/newsletters"
	maxResponseBytes       = 8 << 20
	maxErrorBodyBytes      = 4 << 10
)

// NewsletterClient performs the authorized digest listing against the backend.
// Every failure is logged and degrades to an empty list.
type NewsletterClient struct {
	HTTPClient *http.Client
	Logger     *zap.Logger
	Path       string
}

var _ ports.DigestFetcher = (*NewsletterClient)(nil)

func (c *NewsletterClient) FetchDigests(ctx context.Context, baseURL string, token domain.SessionToken) []domain.NewsletterDigest {
	logger := c.logger()

	if token.IsZero() {
		logger.Warn("skipping newsletter fetch: no session token")
		return []domain.NewsletterDigest{}
	}

	digests, err := c.fetch(ctx, baseURL, token)
	if err != nil {
		logger.Error("fetch newsletters failed", zap.Error(err))
		return []domain.NewsletterDigest{}
	}

	logger.Debug("fetched newsletters", zap.Int("count", len(digests)))
	return digests
}

func (c *NewsletterClient) fetch(ctx context.Context, baseURL string, token domain.SessionToken) ([]domain.NewsletterDigest, error) {
	endpoint, err := buildEndpoint(baseURL, c.path())
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create newsletters request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+string(token))
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("request newsletters: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var digests []domain.NewsletterDigest
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&digests); err != nil {
		return nil, fmt.Errorf("decode newsletters response: %w", err)
	}
	if digests == nil {
		digests = []domain.NewsletterDigest{}
	}

	return digests, nil
}

// StatusError carries a non-2xx backend response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("newsletters endpoint returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("newsletters endpoint returned status %d: %s", e.StatusCode, e.Body)
}

func (c *NewsletterClient) path() string {
	if c.Path == "" {
		return DefaultNewslettersPath
	}
	return c.Path
}

func (c *NewsletterClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *NewsletterClient) logger() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return zap.NewNop()
}

func buildEndpoint(baseURL string, path string) (string, error) {
	if baseURL == "" {
		return "", errors.New("api base url is required")
	}

	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("api base url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("api base url host is required")
	}

	return parsed.String() + "/" + strings.TrimLeft(path, "/"), nil
}
