package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/ecobuild/internal/classifier"
	"github.com/sells-group/ecobuild/internal/engine"
	"github.com/sells-group/ecobuild/internal/refdata"
)

// initEngine validates the config for mode, loads the reference tables and
// the classifier, and builds the Engine. Reference data that cannot be
// loaded leaves the engine in degraded mode rather than failing.
func initEngine(ctx context.Context, mode string) (*engine.Engine, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	store := refdata.OpenStore(ctx, cfg.RefData)

	clf, err := classifier.Open(cfg.Classifier)
	if err != nil {
		return nil, err
	}

	zap.L().Info("engine ready",
		zap.String("refdata_source", cfg.RefData.Source),
		zap.Bool("refdata_available", store.Available()),
		zap.String("classifier", clf.Backend()),
		zap.Bool("classifier_available", clf.Available()),
		zap.String("classifier_circuit", clf.Circuit()),
	)

	return engine.New(store, cfg.Engine, clf), nil
}
