package factory

import (
	"FlowSentinel/internal/config"
	"FlowSentinel/internal/model"
	"fmt"
	"sort"
	"sync"
)

// ClassifierFactory builds a classifier from its configuration section.
type ClassifierFactory func(cfg config.ClassifierConfig) (model.Classifier, error)

var (
	mu sync.RWMutex
	// registry holds the mapping of classifier types to their factory functions.
	registry = make(map[string]ClassifierFactory)
)

// RegisterClassifier registers a new classifier type with its factory function.
func RegisterClassifier(name string, factory ClassifierFactory) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("classifier type '%s' already registered", name))
	}
	registry[name] = factory
}

// NewClassifier creates the classifier named by cfg.Type.
func NewClassifier(cfg config.ClassifierConfig) (model.Classifier, error) {
	mu.RLock()
	factory, ok := registry[cfg.Type]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown classifier type: '%s' (registered: %v)", cfg.Type, Registered())
	}

	clf, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating classifier type '%s': %w", cfg.Type, err)
	}
	return clf, nil
}

// Registered returns the sorted names of all registered classifier types.
func Registered() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
