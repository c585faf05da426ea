package classifier

import (
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ecobuild/internal/config"
	"github.com/sells-group/ecobuild/internal/resilience"
)

// Open builds the Adapter selected by cfg.Provider. A forest model that
// fails to load leaves the adapter without a model: predictions then report
// ErrUnavailable while the rest of the engine keeps working.
func Open(cfg config.ClassifierConfig) (*Adapter, error) {
	log := zap.L().With(zap.String("component", "classifier"), zap.String("provider", cfg.Provider))

	switch cfg.Provider {
	case "", "none":
		return NewAdapter(nil), nil

	case "forest":
		f, err := LoadForest(cfg.ModelPath)
		if err != nil {
			log.Warn("classifier: model not loaded", zap.String("path", cfg.ModelPath), zap.Error(err))
			return NewAdapter(nil), nil
		}
		log.Info("classifier: model loaded",
			zap.String("path", cfg.ModelPath),
			zap.Int("trees", len(f.Trees)),
			zap.Int("classes", len(f.Classes)),
		)
		return NewAdapter(f), nil

	case "http":
		if cfg.ServiceURL == "" {
			return nil, eris.New("classifier: classifier.service_url is required for http")
		}
		return NewAdapter(NewRemote(RemoteOptions{
			URL:     cfg.ServiceURL,
			Timeout: time.Duration(cfg.TimeoutSecs) * time.Second,
			Retry:   resilience.FromRetryConfig(cfg.Retry),
			Circuit: resilience.FromCircuitConfig(cfg.Circuit),
		})), nil

	default:
		return nil, eris.Errorf("classifier: unknown provider %q", cfg.Provider)
	}
}
