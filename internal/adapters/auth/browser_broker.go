package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bnema/mailbin/internal/domain"
	"github.com/bnema/mailbin/internal/ports"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const DefaultCallbackTimeout = 5 * time.Minute

// BrowserBroker runs the authorization-code flow with PKCE against a loopback callback.
// Open launches the user's browser; when it is nil or fails, the URL printed to Out is the only path.
type BrowserBroker struct {
	Config     *oauth2.Config
	ListenAddr string
	Timeout    time.Duration
	Open       func(url string) error
	Out        io.Writer
	HTTPClient *http.Client
	Clock      ports.Clock
	Logger     *zap.Logger
}

var _ ports.CredentialBroker = (*BrowserBroker)(nil)

func (b *BrowserBroker) Prompt(ctx context.Context) domain.ConsentResult {
	if b.Config == nil || b.Config.ClientID == "" {
		return domain.ConsentFailed(errors.New("oauth client id is required"))
	}

	state, err := NewState()
	if err != nil {
		return domain.ConsentFailed(fmt.Errorf("generate oauth state: %w", err))
	}
	verifier := oauth2.GenerateVerifier()

	server, err := StartCallbackServer(b.ListenAddr, state)
	if err != nil {
		return domain.ConsentFailed(err)
	}
	defer func() { _ = server.Close() }()

	cfg := *b.Config
	cfg.RedirectURL = server.RedirectURI()
	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))

	if b.Out != nil {
		_, _ = fmt.Fprintf(b.Out, "Open this URL to sign in with Google:\n\n  %s\n\n", authURL)
	}
	if b.Open != nil {
		if err := b.Open(authURL); err != nil {
			b.logger().Warn("could not open browser", zap.Error(err))
		}
	}

	code, err := server.WaitForCode(ctx, b.timeout())
	if err != nil {
		if isCancellation(err) {
			return domain.ConsentCancelled()
		}
		return domain.ConsentFailed(err)
	}

	token, err := cfg.Exchange(withHTTPClient(ctx, b.HTTPClient), code, oauth2.VerifierOption(verifier))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return domain.ConsentCancelled()
		}
		return domain.ConsentFailed(fmt.Errorf("exchange authorization code: %w", err))
	}

	credential, err := CredentialFromToken(token, now(b.Clock))
	if err != nil {
		return domain.ConsentFailed(err)
	}

	return domain.ConsentSucceeded(credential)
}

func (b *BrowserBroker) timeout() time.Duration {
	if b.Timeout > 0 {
		return b.Timeout
	}
	return DefaultCallbackTimeout
}

func (b *BrowserBroker) logger() *zap.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return zap.NewNop()
}

func isCancellation(err error) bool {
	return errors.Is(err, ErrAccessDenied) || errors.Is(err, context.Canceled)
}

func withHTTPClient(ctx context.Context, client *http.Client) context.Context {
	if client == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, client)
}

func now(clock ports.Clock) time.Time {
	if clock == nil {
		return time.Now()
	}
	return clock.Now()
}
