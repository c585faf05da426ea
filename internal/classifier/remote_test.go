package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ecobuild/internal/dispersion"
	"github.com/sells-group/ecobuild/internal/resilience"
)

func newTestRemote(url string) *Remote {
	return NewRemote(RemoteOptions{
		URL:     url + "/",
		Timeout: 2 * time.Second,
		Retry: resilience.RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     2 * time.Millisecond,
		},
		Circuit: resilience.CircuitBreakerConfig{FailureThreshold: 2, ResetTimeout: time.Hour},
	})
}

func TestRemote_Predict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/predict", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req predictRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Features, FeatureCount)
		assert.Equal(t, 13.0, req.Features[12])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"predicted_class": 2, "probabilities": [0.05, 0.15, 0.8]}`))
	}))
	defer srv.Close()

	a := NewAdapter(newTestRemote(srv.URL))
	got, err := a.Predict(context.Background(), sampleRecord(), dispersion.Estimate{FinalPM25: 13})
	require.NoError(t, err)
	assert.Equal(t, 2, got.PredictedClass)
	assert.Equal(t, "High", got.Label)
	assert.InDelta(t, 80, got.Confidence, 1e-9)
}

func TestRemote_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"predicted_class": 0, "probabilities": [1, 0, 0]}`))
	}))
	defer srv.Close()

	p, err := newTestRemote(srv.URL).Predict(context.Background(), FeatureVector{})
	require.NoError(t, err)
	assert.Equal(t, 0, p.Class)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRemote_NoRetryOnBadRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestRemote(srv.URL).Predict(context.Background(), FeatureVector{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Equal(t, int32(1), calls.Load())
}

func TestRemote_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"probabilities": [1]}`))
	}))
	defer srv.Close()

	_, err := newTestRemote(srv.URL).Predict(context.Background(), FeatureVector{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no predicted_class")
}

func TestRemote_CircuitOpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := newTestRemote(srv.URL)
	a := NewAdapter(r)
	for i := 0; i < 2; i++ {
		_, err := a.Predict(context.Background(), sampleRecord(), dispersion.Estimate{})
		require.Error(t, err)
	}
	assert.Equal(t, resilience.CircuitOpen, r.CircuitState())
	assert.Equal(t, "open", a.Circuit())
	before := calls.Load()

	_, err := a.Predict(context.Background(), sampleRecord(), dispersion.Estimate{})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnavailable))
	assert.Contains(t, err.Error(), "circuit breaker is open")
	assert.Equal(t, before, calls.Load(), "open circuit fails without calling the service")
}
