package classifier

import (
	"context"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ecobuild/internal/decimal"
	"github.com/sells-group/ecobuild/internal/dispersion"
	"github.com/sells-group/ecobuild/internal/model"
	"github.com/sells-group/ecobuild/internal/resilience"
)

// Adapter turns model output into a ClassifierPrediction. A nil model makes
// every prediction fail with ErrUnavailable.
type Adapter struct {
	model Model
}

// NewAdapter wraps m, which may be nil.
func NewAdapter(m Model) *Adapter {
	return &Adapter{model: m}
}

// Available reports whether a model is configured.
func (a *Adapter) Available() bool {
	return a != nil && a.model != nil
}

// Backend names the configured model, or "none".
func (a *Adapter) Backend() string {
	if !a.Available() {
		return "none"
	}
	return a.model.Name()
}

// circuitReporter is implemented by models behind a circuit breaker.
type circuitReporter interface {
	CircuitState() resilience.CircuitState
}

// Circuit reports the breaker state of a remote backend, or "" when the
// backend has no breaker.
func (a *Adapter) Circuit() string {
	if !a.Available() {
		return ""
	}
	if cr, ok := a.model.(circuitReporter); ok {
		return cr.CircuitState().String()
	}
	return ""
}

// Predict classifies rec. Confidence is the largest class probability as a
// percentage with two decimals. Any backend failure is reported as
// ErrUnavailable.
func (a *Adapter) Predict(ctx context.Context, rec model.EnrichedProjectRecord, est dispersion.Estimate) (model.ClassifierPrediction, error) {
	if !a.Available() {
		return model.ClassifierPrediction{}, ErrUnavailable
	}

	start := time.Now()
	p, err := a.model.Predict(ctx, Features(rec, est))
	if err != nil {
		zap.L().Warn("classifier: prediction failed",
			zap.String("backend", a.model.Name()),
			zap.Error(err),
		)
		return model.ClassifierPrediction{}, eris.Wrapf(ErrUnavailable, "%s: %v", a.model.Name(), err)
	}
	if len(p.Probabilities) == 0 {
		return model.ClassifierPrediction{}, eris.Wrapf(ErrUnavailable, "%s: empty probability distribution", a.model.Name())
	}

	maxProb := p.Probabilities[0]
	for _, v := range p.Probabilities[1:] {
		maxProb = math.Max(maxProb, v)
	}

	zap.L().Debug("classifier: prediction",
		zap.String("backend", a.model.Name()),
		zap.Int("class", p.Class),
		zap.Duration("elapsed", time.Since(start)),
	)

	return model.ClassifierPrediction{
		PredictedClass: p.Class,
		Label:          Label(p.Class),
		Confidence:     decimal.Round(maxProb*100, 2),
	}, nil
}
