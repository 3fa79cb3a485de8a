package factory_test

import (
	"FlowSentinel/internal/classifier/bayes"
	"FlowSentinel/internal/classifier/forest"
	"FlowSentinel/internal/config"
	"FlowSentinel/internal/factory"
	"FlowSentinel/internal/model"
	"testing"
)

func TestNewClassifier(t *testing.T) {
	for _, name := range []string{forest.Name, bayes.Name} {
		clf, err := factory.NewClassifier(config.ClassifierConfig{Type: name, NumTrees: 5, Seed: 1})
		if err != nil {
			t.Fatalf("NewClassifier(%q) error = %v", name, err)
		}
		if clf.Name() != name {
			t.Errorf("expected %q, got %q", name, clf.Name())
		}
	}
}

func TestNewClassifier_Unknown(t *testing.T) {
	if _, err := factory.NewClassifier(config.ClassifierConfig{Type: "svm"}); err == nil {
		t.Error("expected error for unknown classifier type")
	}
}

func TestRegisterClassifier_Duplicate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	factory.RegisterClassifier(forest.Name, func(config.ClassifierConfig) (model.Classifier, error) {
		return forest.New(1, 0, 2, 0), nil
	})
}

func TestRegistered(t *testing.T) {
	names := factory.Registered()
	if len(names) < 2 || names[0] != bayes.Name || names[1] != forest.Name {
		t.Errorf("unexpected registry contents %v", names)
	}
}
