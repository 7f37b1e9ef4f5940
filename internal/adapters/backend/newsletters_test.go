package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const twoDigests = `[
  {"emailId":"news@acme.test","companyName":"Acme","companyLogo":"https://acme.test/logo.png","unsubscribeLink":"https://acme.test/unsub","emails":[{"from":"news@acme.test","unsubscribeLink":"https://acme.test/unsub?m=1"}]},
  {"emailId":"hello@globex.test","companyName":"Globex","companyLogo":"","unsubscribeLink":"mailto:unsub@globex.test","emails":[]}
]`

func newObservedClient(t *testing.T, server *httptest.Server) (*NewsletterClient, *observer.ObservedLogs) {
	t.Helper()

	core, logs := observer.New(zapcore.InfoLevel)
	return &NewsletterClient{HTTPClient: server.Client(), Logger: zap.New(core)}, logs
}

func TestFetchDigestsWithoutTokenSkipsNetwork(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	t.Cleanup(server.Close)

	client, logs := newObservedClient(t, server)

	digests := client.FetchDigests(context.Background(), server.URL, "")
	require.NotNil(t, digests)
	assert.Empty(t, digests)
	assert.Zero(t, hits.Load())
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].Message, "no session token")
}

func TestFetchDigestsSendsBearerAndDecodes(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/emails/newsletters", r.URL.Path)
		assert.Equal(t, "Bearer signed.session.token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, twoDigests)
	}))
	t.Cleanup(server.Close)

	client, logs := newObservedClient(t, server)

	digests := client.FetchDigests(context.Background(), server.URL+"/", "signed.session.token")
	require.Len(t, digests, 2)
	assert.Equal(t, "Acme", digests[0].CompanyName)
	assert.Equal(t, "news@acme.test", digests[0].EmailID)
	require.Len(t, digests[0].Emails, 1)
	assert.Equal(t, "https://acme.test/unsub?m=1", digests[0].Emails[0].UnsubscribeLink)
	assert.Equal(t, "mailto:unsub@globex.test", digests[1].UnsubscribeLink)
	assert.Zero(t, logs.Len())
}

func TestFetchDigestsHonoursCustomPath(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/emails/newsletters", r.URL.Path)
		_, _ = fmt.Fprint(w, `[]`)
	}))
	t.Cleanup(server.Close)

	client := &NewsletterClient{HTTPClient: server.Client(), Path: "v2/emails/newsletters"}

	assert.Empty(t, client.FetchDigests(context.Background(), server.URL, "tok"))
}

func TestFetchDigestsIsIdempotentAgainstUnchangedBackend(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, twoDigests)
	}))
	t.Cleanup(server.Close)

	client := &NewsletterClient{HTTPClient: server.Client()}

	first := client.FetchDigests(context.Background(), server.URL, "tok")
	second := client.FetchDigests(context.Background(), server.URL, "tok")
	assert.Equal(t, first, second)
}

func TestFetchDigestsDegradesToEmptyOnFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantLog string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":"invalid_token"}`, wantLog: "status 401"},
		{name: "forbidden", status: http.StatusForbidden, body: "", wantLog: "status 403"},
		{name: "server error", status: http.StatusInternalServerError, body: "boom", wantLog: "status 500"},
		{name: "malformed json", status: http.StatusOK, body: `{"not":"an array"`, wantLog: "decode newsletters response"},
		{name: "wrong shape", status: http.StatusOK, body: `{"emails":[]}`, wantLog: "decode newsletters response"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = fmt.Fprint(w, tt.body)
			}))
			t.Cleanup(server.Close)

			client, logs := newObservedClient(t, server)

			digests := client.FetchDigests(context.Background(), server.URL, "tok")
			require.NotNil(t, digests)
			assert.Empty(t, digests)
			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			assert.Equal(t, zapcore.ErrorLevel, entry.Level)
			assert.Contains(t, entry.ContextMap()["error"], tt.wantLog)
		})
	}
}

func TestFetchDigestsNullBodyIsEmptyList(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `null`)
	}))
	t.Cleanup(server.Close)

	client := &NewsletterClient{HTTPClient: server.Client()}

	digests := client.FetchDigests(context.Background(), server.URL, "tok")
	require.NotNil(t, digests)
	assert.Empty(t, digests)
}

func TestFetchDigestsTransportErrorIsLogged(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	core, logs := observer.New(zapcore.InfoLevel)
	client := &NewsletterClient{Logger: zap.New(core)}

	assert.Empty(t, client.FetchDigests(context.Background(), baseURL, "tok"))
	assert.Equal(t, 1, logs.FilterMessage("fetch newsletters failed").Len())
}

func TestFetchDigestsRejectsInvalidBaseURL(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	client := &NewsletterClient{Logger: zap.New(core)}

	assert.Empty(t, client.FetchDigests(context.Background(), "ftp://example.com", "tok"))
	assert.Empty(t, client.FetchDigests(context.Background(), "", "tok"))
	assert.Equal(t, 2, logs.Len())
}

func TestStatusErrorMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "newsletters endpoint returned status 401", (&StatusError{StatusCode: 401}).Error())
	assert.Equal(t, "newsletters endpoint returned status 500: boom", (&StatusError{StatusCode: 500, Body: "boom"}).Error())
}
