package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFail = errors.New("fail")

func succeed(cb *CircuitBreaker) error {
	_, err := ExecuteVal(context.Background(), cb, func(_ context.Context) (int, error) { return 1, nil })
	return err
}

func failN(cb *CircuitBreaker, n int) {
	for i := 0; i < n; i++ {
		_, _ = ExecuteVal(context.Background(), cb, func(_ context.Context) (int, error) { return 0, errFail })
	}
}

func TestCircuitBreaker_ClosedPassesThrough(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig())

	v, err := ExecuteVal(context.Background(), cb, func(_ context.Context) (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3, ResetTimeout: time.Minute})
	failN(cb, 3)
	assert.Equal(t, CircuitOpen, cb.State())

	_, err := ExecuteVal(context.Background(), cb, func(_ context.Context) (int, error) {
		t.Error("should not be called when circuit is open")
		return 0, nil
	})
	assert.True(t, eris.Is(err, ErrCircuitOpen))
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3, ResetTimeout: time.Minute})
	failN(cb, 2)
	require.NoError(t, succeed(cb))
	failN(cb, 2)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	now := time.Now()
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: 10 * time.Second})
	cb.now = func() time.Time { return now }

	failN(cb, 1)
	assert.Equal(t, CircuitOpen, cb.State())

	now = now.Add(11 * time.Second)
	assert.Equal(t, CircuitHalfOpen, cb.State())

	require.NoError(t, succeed(cb))
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenNeedsAllProbes(t *testing.T) {
	now := time.Now()
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Second, HalfOpenMaxProbes: 2})
	cb.now = func() time.Time { return now }

	failN(cb, 1)
	now = now.Add(2 * time.Second)

	require.NoError(t, succeed(cb))
	assert.Equal(t, CircuitHalfOpen, cb.State())
	require.NoError(t, succeed(cb))
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Second})
	cb.now = func() time.Time { return now }

	failN(cb, 1)
	now = now.Add(2 * time.Second)
	failN(cb, 1)

	assert.Equal(t, CircuitOpen, cb.State())
}

func TestCircuitState_String(t *testing.T) {
	assert.Equal(t, "closed", CircuitClosed.String())
	assert.Equal(t, "open", CircuitOpen.String())
	assert.Equal(t, "half-open", CircuitHalfOpen.String())
	assert.Equal(t, "unknown", CircuitState(9).String())
}
