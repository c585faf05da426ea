package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/ecobuild/internal/config"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestDo_SuccessOnFirstAttempt(t *testing.T) {
	var calls int
	err := Do(context.Background(), DefaultRetryConfig(), func(_ context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_SuccessAfterRetry(t *testing.T) {
	var calls, retries int
	cfg := fastRetry()
	cfg.OnRetry = func(int, error) { retries++ }

	err := Do(context.Background(), cfg, func(_ context.Context) error {
		calls++
		if calls < 3 {
			return NewTransientError(errors.New("temporary"), 503)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, retries)
}

func TestDo_ExhaustsRetries(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastRetry(), func(_ context.Context) error {
		calls++
		return NewTransientError(errors.New("always fails"), 500)
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, "always fails", err.Error())
}

func TestDo_NonTransientError_NoRetry(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastRetry(), func(_ context.Context) error {
		calls++
		return errors.New("permanent error: bad request")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_CustomShouldRetry(t *testing.T) {
	var calls int
	cfg := fastRetry()
	cfg.ShouldRetry = func(error) bool { return true }

	_ = Do(context.Background(), cfg, func(_ context.Context) error {
		calls++
		return errors.New("plain")
	})
	assert.Equal(t, 3, calls)
}

func TestDo_ContextCancelledStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	cfg := fastRetry()
	cfg.InitialBackoff = time.Second

	err := Do(ctx, cfg, func(_ context.Context) error {
		calls++
		cancel()
		return NewTransientError(errors.New("temporary"), 503)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoVal_ReturnsValue(t *testing.T) {
	var calls int
	val, err := DoVal(context.Background(), fastRetry(), func(_ context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", NewTransientError(errors.New("timeout"), 0)
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", val)
	assert.Equal(t, 2, calls)
}

func TestBackoff_CappedAndNonNegative(t *testing.T) {
	cfg := applyDefaults(RetryConfig{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     300 * time.Millisecond,
		Multiplier:     2,
	})
	assert.Equal(t, 100*time.Millisecond, backoff(0, cfg))
	assert.Equal(t, 200*time.Millisecond, backoff(1, cfg))
	assert.Equal(t, 300*time.Millisecond, backoff(5, cfg))

	cfg.JitterFraction = 0.5
	for i := 0; i < 50; i++ {
		d := backoff(1, cfg)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, 300*time.Millisecond)
	}
}

func TestFromRetryConfig(t *testing.T) {
	cfg := FromRetryConfig(config.RetryConfig{MaxAttempts: 5, InitialBackoffMs: 10, MaxBackoffMs: 100, Multiplier: 3, JitterFraction: 0})
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, 10*time.Millisecond, cfg.InitialBackoff)
	assert.Equal(t, 100*time.Millisecond, cfg.MaxBackoff)
	assert.InDelta(t, 3.0, cfg.Multiplier, 1e-9)
	assert.InDelta(t, 0.0, cfg.JitterFraction, 1e-9)

	def := FromRetryConfig(config.RetryConfig{JitterFraction: -1})
	assert.Equal(t, DefaultRetryConfig().MaxAttempts, def.MaxAttempts)
	assert.Equal(t, DefaultRetryConfig().InitialBackoff, def.InitialBackoff)
	assert.InDelta(t, 0.25, def.JitterFraction, 1e-9)
}

func TestFromCircuitConfig(t *testing.T) {
	cfg := FromCircuitConfig(config.CircuitConfig{FailureThreshold: 2, ResetTimeoutSecs: 7})
	assert.Equal(t, 2, cfg.FailureThreshold)
	assert.Equal(t, 7*time.Second, cfg.ResetTimeout)

	def := FromCircuitConfig(config.CircuitConfig{})
	assert.Equal(t, 5, def.FailureThreshold)
	assert.Equal(t, 30*time.Second, def.ResetTimeout)
}
