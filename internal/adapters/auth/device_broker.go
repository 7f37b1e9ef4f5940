package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/bnema/mailbin/internal/domain"
	"github.com/bnema/mailbin/internal/ports"
	"golang.org/x/oauth2"
)

// DeviceBroker runs the OAuth device authorization grant for hosts without a browser.
type DeviceBroker struct {
	Config     *oauth2.Config
	Out        io.Writer
	HTTPClient *http.Client
	Clock      ports.Clock
}

var _ ports.CredentialBroker = (*DeviceBroker)(nil)

func (b *DeviceBroker) Prompt(ctx context.Context) domain.ConsentResult {
	if b.Config == nil || b.Config.ClientID == "" {
		return domain.ConsentFailed(errors.New("oauth client id is required"))
	}
	if b.Config.Endpoint.DeviceAuthURL == "" {
		return domain.ConsentFailed(errors.New("oauth endpoint has no device authorization url"))
	}

	ctx = withHTTPClient(ctx, b.HTTPClient)

	device, err := b.Config.DeviceAuth(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return domain.ConsentCancelled()
		}
		return domain.ConsentFailed(fmt.Errorf("request device code: %w", err))
	}

	if b.Out != nil {
		verificationURL := device.VerificationURIComplete
		if verificationURL == "" {
			verificationURL = device.VerificationURI
		}
		_, _ = fmt.Fprintf(b.Out, "Visit %s and enter code %s\n", verificationURL, device.UserCode)
	}

	token, err := b.Config.DeviceAccessToken(ctx, device)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.ErrorCode == "access_denied" {
			return domain.ConsentCancelled()
		}
		if errors.Is(err, context.Canceled) {
			return domain.ConsentCancelled()
		}
		return domain.ConsentFailed(fmt.Errorf("poll device token: %w", err))
	}

	credential, err := CredentialFromToken(token, now(b.Clock))
	if err != nil {
		return domain.ConsentFailed(err)
	}

	return domain.ConsentSucceeded(credential)
}
