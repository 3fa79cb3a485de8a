package pipeline

import (
	_ "FlowSentinel/internal/classifier/bayes"  // Registers the naive Bayes classifier
	_ "FlowSentinel/internal/classifier/forest" // Registers the random forest classifier
	"FlowSentinel/internal/config"
	"FlowSentinel/internal/engine/flowkey"
	"FlowSentinel/internal/factory"
	"FlowSentinel/internal/model"
	"FlowSentinel/internal/store"
	"FlowSentinel/internal/store/sqlite"
	"fmt"
)

// NewModelStore opens the configured model store. The returned func releases it.
func NewModelStore(cfg config.ModelStoreConfig) (model.ModelStore, func() error, error) {
	switch cfg.Type {
	case "", "file":
		return store.NewFileStore(), func() error { return nil }, nil
	case "sqlite":
		s, err := sqlite.NewStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown model_store type: '%s'", cfg.Type)
	}
}

// FromConfig wires a pipeline from the configuration. Extra options are
// applied after the configured ones.
func FromConfig(cfg *config.Config, opts ...Option) (*Pipeline, func() error, error) {
	clf, err := factory.NewClassifier(cfg.Classifier)
	if err != nil {
		return nil, nil, err
	}
	resolver, err := flowkey.New(cfg.Resolver)
	if err != nil {
		return nil, nil, err
	}
	modelStore, closeStore, err := NewModelStore(cfg.ModelStore)
	if err != nil {
		return nil, nil, err
	}

	base := []Option{
		WithStore(modelStore),
		WithResolver(resolver),
		WithSplit(cfg.Training.TestFraction, cfg.Training.Seed),
	}
	return New(clf, append(base, opts...)...), closeStore, nil
}
