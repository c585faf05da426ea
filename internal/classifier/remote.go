package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ecobuild/internal/resilience"
)

// RemoteOptions configures a Remote model.
type RemoteOptions struct {
	URL     string
	Timeout time.Duration
	Retry   resilience.RetryConfig
	Circuit resilience.CircuitBreakerConfig
}

// Remote calls a model service over HTTP:
//
//	POST {url}/predict {"features": [16 numbers]}
//	-> {"predicted_class": n, "probabilities": [...]}
//
// Transient failures are retried, and repeated failures open a circuit
// breaker so an outage fails fast.
type Remote struct {
	url     string
	client  *http.Client
	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker
}

// NewRemote creates a Remote model client.
func NewRemote(opts RemoteOptions) *Remote {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Retry.OnRetry == nil {
		opts.Retry.OnRetry = resilience.RetryLogger("classifier", "remote_predict")
	}
	return &Remote{
		url:     strings.TrimRight(opts.URL, "/") + "/predict",
		client:  &http.Client{Timeout: opts.Timeout},
		retry:   opts.Retry,
		breaker: resilience.NewCircuitBreaker(opts.Circuit),
	}
}

type predictRequest struct {
	Features []float64 `json:"features"`
}

type predictResponse struct {
	PredictedClass *int      `json:"predicted_class"`
	Probabilities  []float64 `json:"probabilities"`
}

// Name implements Model.
func (r *Remote) Name() string { return "http" }

// CircuitState reports the breaker guarding the service.
func (r *Remote) CircuitState() resilience.CircuitState { return r.breaker.State() }

// Predict implements Model.
func (r *Remote) Predict(ctx context.Context, x FeatureVector) (Prediction, error) {
	body, err := json.Marshal(predictRequest{Features: x[:]})
	if err != nil {
		return Prediction{}, eris.Wrap(err, "classifier: encode request")
	}

	return resilience.ExecuteVal(ctx, r.breaker, func(ctx context.Context) (Prediction, error) {
		return resilience.DoVal(ctx, r.retry, func(ctx context.Context) (Prediction, error) {
			return r.post(ctx, body)
		})
	})
}

func (r *Remote) post(ctx context.Context, body []byte) (Prediction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return Prediction{}, eris.Wrap(err, "classifier: create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return Prediction{}, eris.Wrapf(err, "classifier: post %s", r.url)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("classifier: status %d from %s", resp.StatusCode, r.url)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return Prediction{}, resilience.NewTransientError(err, resp.StatusCode)
		}
		return Prediction{}, err
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Prediction{}, eris.Wrap(err, "classifier: decode response")
	}
	if out.PredictedClass == nil {
		return Prediction{}, eris.New("classifier: response has no predicted_class")
	}
	return Prediction{Class: *out.PredictedClass, Probabilities: out.Probabilities}, nil
}
