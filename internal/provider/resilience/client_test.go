package resilience_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airsentinel/airsentinel/internal/provider/resilience"
)

// faultTransport fails every request at the transport level.
type faultTransport struct {
	err error
}

func (f *faultTransport) RoundTrip(_ *http.Request) (*http.Response, error) {
	return nil, f.err
}

func TestClient_Do_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := resilience.NewClient(resilience.DefaultClientConfig("test"))

	req, err := http.NewRequest(http.MethodGet, server.URL, http.NoBody)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, gobreaker.StateClosed, client.CircuitBreakerState())
}

func TestClient_Do_ServerErrorPassedThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := resilience.NewClient(resilience.DefaultClientConfig("test"))

	req, err := http.NewRequest(http.MethodGet, server.URL, http.NoBody)
	require.NoError(t, err)

	// The 5xx counts against the breaker but the response still reaches
	// the caller for status classification.
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	counts := client.CircuitBreakerCounts()
	assert.Equal(t, uint32(1), counts.TotalFailures)
}

func TestClient_Do_CircuitOpens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := resilience.NewClient(resilience.DefaultClientConfig("test"))

	// Five consecutive failures trip the default breaker
	for i := 0; i < 5; i++ {
		req, err := http.NewRequest(http.MethodGet, server.URL, http.NoBody)
		require.NoError(t, err)
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
	}

	assert.Equal(t, gobreaker.StateOpen, client.CircuitBreakerState())

	req, err := http.NewRequest(http.MethodGet, server.URL, http.NoBody)
	require.NoError(t, err)
	_, err = client.Do(req)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
}

func TestClient_Do_TransportFault(t *testing.T) {
	faultErr := errors.New("simulated connection reset")
	cfg := resilience.DefaultClientConfig("test")
	cfg.Transport = &faultTransport{err: faultErr}
	client := resilience.NewClient(cfg)

	req, err := http.NewRequest(http.MethodGet, "http://example.invalid/", http.NoBody)
	require.NoError(t, err)

	_, err = client.Do(req)
	require.Error(t, err)
	assert.ErrorContains(t, err, "simulated connection reset")

	counts := client.CircuitBreakerCounts()
	assert.Equal(t, uint32(1), counts.TotalFailures)
}

func TestClient_Do_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := resilience.DefaultClientConfig("test")
	cfg.Timeout = 20 * time.Millisecond
	client := resilience.NewClient(cfg)

	req, err := http.NewRequest(http.MethodGet, server.URL, http.NoBody)
	require.NoError(t, err)

	start := time.Now()
	_, err = client.Do(req)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 150*time.Millisecond)
}

func TestStatusError(t *testing.T) {
	err := &resilience.StatusError{StatusCode: 502}
	assert.Equal(t, 502, err.HTTPStatus())
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "Bad Gateway")
}

func TestDefaultReadyToTrip(t *testing.T) {
	tests := []struct {
		name     string
		requests uint32
		failures uint32
		want     bool
	}{
		{name: "too few requests", requests: 4, failures: 4, want: false},
		{name: "low failure rate", requests: 10, failures: 4, want: false},
		{name: "at threshold", requests: 10, failures: 5, want: true},
		{name: "all failing", requests: 5, failures: 5, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counts := gobreaker.Counts{Requests: tt.requests, TotalFailures: tt.failures}
			assert.Equal(t, tt.want, resilience.DefaultReadyToTrip(counts))
		})
	}
}
