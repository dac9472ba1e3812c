package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(timeout time.Duration) *Client {
	return New(timeout, Policy{
		MaxAttempts: 3,
		Delay:       10 * time.Millisecond,
		MinInterval: 0,
	})
}

func TestGetJSONRetriesServerErrors(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"name":"Thunderfury"}`))
	}))
	defer srv.Close()

	var out struct {
		Name string `json:"name"`
	}
	err := testClient(5 * time.Second).GetJSON(context.Background(), srv.URL, nil, nil, &out)

	require.NoError(t, err, "Third attempt should succeed")
	assert.Equal(t, "Thunderfury", out.Name)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts), "503s should be retried")
}

func TestGetJSONNotFoundFailsFast(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	var out map[string]interface{}
	err := testClient(5 * time.Second).GetJSON(context.Background(), srv.URL, nil, nil, &out)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts), "404 should not be retried")
}

func TestGetJSONOtherClientErrorsFailFast(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	var out map[string]interface{}
	err := testClient(5 * time.Second).GetJSON(context.Background(), srv.URL, nil, nil, &out)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPermanent)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts), "403 should not be retried")
}

func TestGetJSONTimeoutsExhaustAttempts(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	var out map[string]interface{}
	err := testClient(20 * time.Millisecond).GetJSON(context.Background(), srv.URL, nil, nil, &out)

	require.Error(t, err, "All attempts timing out should return an error")
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts), "Timeouts should be retried exactly MaxAttempts times")
}

func TestGetJSONMalformedBodyFailsClosed(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.Write([]byte(`{"name":`))
	}))
	defer srv.Close()

	var out map[string]interface{}
	err := testClient(5 * time.Second).GetJSON(context.Background(), srv.URL, nil, nil, &out)

	require.Error(t, err, "Malformed payload should be no-data, not a success")
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts), "Decode failures should not be retried")
}

func TestGetHTMLReturnsRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>guide</body></html>"))
	}))
	defer srv.Close()

	body, err := testClient(5*time.Second).GetHTML(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Contains(t, string(body), "guide")
}

func TestPostJSONSendsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	err := testClient(5*time.Second).PostJSON(context.Background(), srv.URL, nil,
		map[string]string{"query": "{}"}, &out)

	require.NoError(t, err)
	assert.True(t, out.OK)
}
