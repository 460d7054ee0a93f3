package optery

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(serverURL string) *Client {
	return NewClient(&config.Config{
		OpteryBaseURL: serverURL,
		OpteryAPIKey:  "test-token",
	})
}

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, _, err := newClient(srv.URL).GetScans(context.Background(), "member-123")
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-token", gotAuth)
}

func TestGetScansExtractsIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/optouts/member-123/get-scans", r.URL.Path)
		w.Write([]byte(`[{"scan_id": "abc"}, {"scan_id": 7}, {"status": "pending"}]`))
	}))
	defer srv.Close()

	raw, ids, err := newClient(srv.URL).GetScans(context.Background(), "member-123")
	require.NoError(t, err)
	assert.Equal(t, []string{"abc", "7"}, ids)
	assert.NotEmpty(t, raw)
}

func TestGetScansInBandError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "Subscription inactive"}`))
	}))
	defer srv.Close()

	_, _, err := newClient(srv.URL).GetScans(context.Background(), "member-123")

	var scanErr *ScanAPIError
	require.ErrorAs(t, err, &scanErr)
	assert.Equal(t, "Subscription inactive", scanErr.Message)
	assert.False(t, IsTransient(err))
}

func TestGetScansMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"unexpected": "object"}`))
	}))
	defer srv.Close()

	_, _, err := newClient(srv.URL).GetScans(context.Background(), "member-123")
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.False(t, IsTransient(err))
}

func TestGetScreenshotsInvalidJSONDegradesToEmptyObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>gateway error</html>`))
	}))
	defer srv.Close()

	shots, err := newClient(srv.URL).GetScreenshotsByScan(context.Background(), "member-123", "scan-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(shots))
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, IsTransient(&APIError{Status: http.StatusTooManyRequests}))
	assert.True(t, IsTransient(&APIError{Status: http.StatusInternalServerError}))
	assert.True(t, IsTransient(&APIError{Status: http.StatusBadGateway}))

	assert.False(t, IsTransient(&APIError{Status: http.StatusBadRequest}))
	assert.False(t, IsTransient(&APIError{Status: http.StatusNotFound}))
	assert.False(t, IsTransient(&ScanAPIError{Message: "nope"}))
	assert.False(t, IsTransient(ErrMalformedResponse))

	// errors the transport produced never reached the API
	assert.True(t, IsTransient(errors.New("dial tcp: connection refused")))
}

func TestAPIErrorBodyTruncated(t *testing.T) {
	long := make([]byte, 1000)
	for i := range long {
		long[i] = 'x'
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write(long)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).ListDataBrokers(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Len(t, apiErr.Body, 200)
}
