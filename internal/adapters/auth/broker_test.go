package auth

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bnema/mailbin/internal/domain"
	"github.com/bnema/mailbin/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const tokenJSON = `{"access_token":"ya29.access","refresh_token":"1//refresh","token_type":"Bearer","expires_in":3599,"scope":"openid email"}`

func newTokenServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func testConfig(server *httptest.Server) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "client-123",
		ClientSecret: "secret-456",
		Scopes:       []string{"openid", "email"},
		Endpoint: oauth2.Endpoint{
			AuthURL:       server.URL + "/auth",
			TokenURL:      server.URL + "/token",
			DeviceAuthURL: server.URL + "/device",
			AuthStyle:     oauth2.AuthStyleInParams,
		},
	}
}

// followRedirect plays the user's browser: it reads the consent URL and hits the callback.
func followRedirect(t *testing.T, query string) func(string) error {
	return func(authURL string) error {
		parsed, err := url.Parse(authURL)
		if err != nil {
			return err
		}
		q := parsed.Query()
		assert.Equal(t, "code", q.Get("response_type"))
		assert.Equal(t, "client-123", q.Get("client_id"))
		assert.Equal(t, "S256", q.Get("code_challenge_method"))
		assert.NotEmpty(t, q.Get("code_challenge"))
		assert.Equal(t, "offline", q.Get("access_type"))

		target := q.Get("redirect_uri") + "?state=" + url.QueryEscape(q.Get("state")) + "&" + query
		go func() {
			resp, err := http.Get(target)
			if err == nil {
				_ = resp.Body.Close()
			}
		}()
		return nil
	}
}

func TestBrowserBrokerSuccess(t *testing.T) {
	t.Parallel()

	server := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "/token", r.URL.Path)
		assert.Equal(t, "authorization_code", r.Form.Get("grant_type"))
		assert.Equal(t, "auth-code", r.Form.Get("code"))
		assert.NotEmpty(t, r.Form.Get("code_verifier"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, tokenJSON)
	})

	var out bytes.Buffer
	broker := &BrowserBroker{
		Config:     testConfig(server),
		ListenAddr: "127.0.0.1:0",
		Timeout:    5 * time.Second,
		Open:       followRedirect(t, "code=auth-code"),
		Out:        &out,
		HTTPClient: server.Client(),
	}

	result := broker.Prompt(context.Background())
	require.Equal(t, domain.ConsentSuccess, result.Type, "err: %v", result.Err)
	require.NotNil(t, result.Credential)
	assert.Equal(t, domain.Credential{
		AccessToken:  "ya29.access",
		RefreshToken: "1//refresh",
		Scope:        "openid email",
		TokenType:    "Bearer",
		ExpiresIn:    3599,
	}, *result.Credential)
	assert.Contains(t, out.String(), server.URL+"/auth?")
}

func TestBrowserBrokerAccessDeniedIsCancel(t *testing.T) {
	t.Parallel()

	server := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("token endpoint must not be called")
	})

	broker := &BrowserBroker{
		Config:  testConfig(server),
		Timeout: 5 * time.Second,
		Open:    followRedirect(t, "error=access_denied"),
	}

	result := broker.Prompt(context.Background())
	assert.Equal(t, domain.ConsentCancel, result.Type)
	assert.Nil(t, result.Credential)
	assert.NoError(t, result.Err)
}

func TestBrowserBrokerCancelledContextIsCancel(t *testing.T) {
	t.Parallel()

	server := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {})

	ctx, cancel := context.WithCancel(context.Background())
	broker := &BrowserBroker{
		Config: testConfig(server),
		Open: func(string) error {
			cancel()
			return nil
		},
	}

	result := broker.Prompt(ctx)
	assert.Equal(t, domain.ConsentCancel, result.Type)
}

func TestBrowserBrokerExchangeFailureIsError(t *testing.T) {
	t.Parallel()

	server := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = fmt.Fprint(w, `{"error":"invalid_grant"}`)
	})

	broker := &BrowserBroker{
		Config:     testConfig(server),
		Timeout:    5 * time.Second,
		Open:       followRedirect(t, "code=stale"),
		HTTPClient: server.Client(),
	}

	result := broker.Prompt(context.Background())
	require.Equal(t, domain.ConsentError, result.Type)
	assert.ErrorContains(t, result.Err, "exchange authorization code")
	assert.Nil(t, result.Credential)
}

func TestBrowserBrokerTimeoutIsError(t *testing.T) {
	t.Parallel()

	server := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {})

	broker := &BrowserBroker{Config: testConfig(server), Timeout: 50 * time.Millisecond}

	result := broker.Prompt(context.Background())
	require.Equal(t, domain.ConsentError, result.Type)
	assert.ErrorIs(t, result.Err, ErrCallbackTimeout)
}

func TestBrowserBrokerRequiresClientID(t *testing.T) {
	t.Parallel()

	result := (&BrowserBroker{Config: &oauth2.Config{}}).Prompt(context.Background())
	assert.Equal(t, domain.ConsentError, result.Type)
	assert.ErrorContains(t, result.Err, "client id")
}

func TestDeviceBrokerSuccess(t *testing.T) {
	t.Parallel()

	var polls atomic.Int32
	server := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/device":
			assert.Equal(t, "client-123", r.Form.Get("client_id"))
			_, _ = fmt.Fprint(w, `{"device_code":"dev-1","user_code":"ABCD-EFGH","verification_uri":"https://example.test/device","expires_in":60,"interval":1}`)
		case "/token":
			assert.Equal(t, "dev-1", r.Form.Get("device_code"))
			if polls.Add(1) == 1 {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = fmt.Fprint(w, `{"error":"authorization_pending"}`)
				return
			}
			_, _ = fmt.Fprint(w, tokenJSON)
		default:
			http.NotFound(w, r)
		}
	})

	var out bytes.Buffer
	broker := &DeviceBroker{Config: testConfig(server), Out: &out, HTTPClient: server.Client()}

	result := broker.Prompt(context.Background())
	require.Equal(t, domain.ConsentSuccess, result.Type, "err: %v", result.Err)
	assert.Equal(t, "ya29.access", result.Credential.AccessToken)
	assert.Equal(t, int32(2), polls.Load())
	assert.Contains(t, out.String(), "ABCD-EFGH")
	assert.Contains(t, out.String(), "https://example.test/device")
}

func TestDeviceBrokerAccessDeniedIsCancel(t *testing.T) {
	t.Parallel()

	server := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/device" {
			_, _ = fmt.Fprint(w, `{"device_code":"dev-1","user_code":"ABCD","verification_uri":"https://example.test/device","expires_in":60,"interval":1}`)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = fmt.Fprint(w, `{"error":"access_denied"}`)
	})

	broker := &DeviceBroker{Config: testConfig(server), HTTPClient: server.Client()}

	result := broker.Prompt(context.Background())
	assert.Equal(t, domain.ConsentCancel, result.Type)
}

func TestDeviceBrokerDeviceCodeFailureIsError(t *testing.T) {
	t.Parallel()

	server := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	broker := &DeviceBroker{Config: testConfig(server), HTTPClient: server.Client()}

	result := broker.Prompt(context.Background())
	require.Equal(t, domain.ConsentError, result.Type)
	assert.ErrorContains(t, result.Err, "request device code")
}

func TestDeviceBrokerRequiresDeviceEndpoint(t *testing.T) {
	t.Parallel()

	result := (&DeviceBroker{Config: &oauth2.Config{ClientID: "c"}}).Prompt(context.Background())
	assert.Equal(t, domain.ConsentError, result.Type)
}

func TestCredentialFromTokenFallsBackToExpiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token := (&oauth2.Token{
		AccessToken: "at",
		TokenType:   "Bearer",
		Expiry:      now.Add(90 * time.Second),
	}).WithExtra(map[string]any{"scope": "email"})

	credential, err := CredentialFromToken(token, ports.FixedClock(now).Now())
	require.NoError(t, err)
	assert.Equal(t, int64(90), credential.ExpiresIn)
	assert.Equal(t, "email", credential.Scope)
	assert.Empty(t, credential.RefreshToken)
}

func TestCredentialFromTokenRequiresAccessToken(t *testing.T) {
	t.Parallel()

	_, err := CredentialFromToken(&oauth2.Token{}, time.Now())
	assert.Error(t, err)

	_, err = CredentialFromToken(nil, time.Now())
	assert.Error(t, err)
}
