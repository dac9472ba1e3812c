package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenEndpoint(t *testing.T, expiresIn int, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(calls, 1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"tok-%d","token_type":"bearer","expires_in":%d}`, n, expiresIn)
	}))
}

func TestTokenCachedUntilNearExpiry(t *testing.T) {
	var calls int32
	srv := tokenEndpoint(t, 86400, &calls)
	defer srv.Close()

	p := NewProvider("test", "id", "secret", srv.URL)
	ctx := context.Background()

	tok1, err := p.Token(ctx)
	require.NoError(t, err, "First token exchange should succeed")
	assert.Equal(t, "tok-1", tok1)

	tok2, err := p.Token(ctx)
	require.NoError(t, err, "Second call should hit the cache")
	assert.Equal(t, tok1, tok2, "Cached token should be returned")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "Endpoint should be hit once")
}

func TestTokenRefreshedWithinSkewWindow(t *testing.T) {
	// expires_in of 30s is inside the 60s skew, so every call re-exchanges
	var calls int32
	srv := tokenEndpoint(t, 30, &calls)
	defer srv.Close()

	p := NewProvider("test", "id", "secret", srv.URL)
	ctx := context.Background()

	tok1, err := p.Token(ctx)
	require.NoError(t, err)
	tok2, err := p.Token(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, tok1, tok2, "Token near expiry should be re-exchanged")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestTokenMissingCredentials(t *testing.T) {
	p := NewProvider("test", "", "", "http://localhost:1/token")

	_, err := p.Token(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestTokenEndpointFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewProvider("test", "id", "secret", srv.URL)

	_, err := p.Token(context.Background())
	assert.Error(t, err, "Endpoint failure should surface as an error, not a token")
}
