// Package bayes implements a Gaussian naive Bayes classifier.
package bayes

import (
	"FlowSentinel/internal/classifier"
	"FlowSentinel/internal/config"
	"FlowSentinel/internal/factory"
	"FlowSentinel/internal/model"
	"encoding/gob"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Name is the registered classifier type.
const Name = "bayes"

// varSmoothing is the fraction of the largest feature variance added to every
// class variance for numerical stability.
const varSmoothing = 1e-9

func init() {
	gob.Register(&Model{})
	factory.RegisterClassifier(Name, func(cfg config.ClassifierConfig) (model.Classifier, error) {
		return New(), nil
	})
}

// Model holds per-class priors, means and variances. Classes absent from the
// training set have Present false and never receive probability mass.
type Model struct {
	Present     [model.NumClasses]bool
	Priors      [model.NumClasses]float64
	Means       [model.NumClasses][]float64
	Variances   [model.NumClasses][]float64
	NumFeatures int
}

// Algorithm returns the classifier type that produced the model.
func (m *Model) Algorithm() string {
	return Name
}

// Validate checks that every present class carries one mean and one positive
// variance per feature.
func (m *Model) Validate() error {
	if m.NumFeatures <= 0 {
		return fmt.Errorf("bayes model has %d features", m.NumFeatures)
	}
	found := false
	for c := 0; c < model.NumClasses; c++ {
		if !m.Present[c] {
			continue
		}
		found = true
		if len(m.Means[c]) != m.NumFeatures || len(m.Variances[c]) != m.NumFeatures {
			return fmt.Errorf("bayes class %d has %d means and %d variances, want %d", c, len(m.Means[c]), len(m.Variances[c]), m.NumFeatures)
		}
		for j, v := range m.Variances[c] {
			if !(v > 0) {
				return fmt.Errorf("bayes class %d feature %d has variance %v", c, j, v)
			}
		}
	}
	if !found {
		return fmt.Errorf("bayes model has no classes")
	}
	return nil
}

// Bayes fits Gaussian naive Bayes models.
type Bayes struct{}

// New creates a Gaussian naive Bayes classifier.
func New() *Bayes {
	return &Bayes{}
}

// Name returns the classifier type.
func (b *Bayes) Name() string {
	return Name
}

// Fit estimates the class-conditional Gaussians.
func (b *Bayes) Fit(features [][]float64, labels []int) (model.ModelHandle, error) {
	width, err := classifier.ValidateTrainingSet(features, labels)
	if err != nil {
		return nil, err
	}

	epsilon := 0.0
	column := make([]float64, len(features))
	for j := 0; j < width; j++ {
		for i, row := range features {
			column[i] = row[j]
		}
		_, variance := stat.PopMeanVariance(column, nil)
		epsilon = math.Max(epsilon, variance)
	}
	epsilon *= varSmoothing
	if epsilon == 0 {
		epsilon = varSmoothing
	}

	m := &Model{NumFeatures: width}
	for c := 0; c < model.NumClasses; c++ {
		var rows [][]float64
		for i, row := range features {
			if labels[i] == c {
				rows = append(rows, row)
			}
		}
		if len(rows) == 0 {
			continue
		}
		m.Present[c] = true
		m.Priors[c] = float64(len(rows)) / float64(len(features))
		m.Means[c] = make([]float64, width)
		m.Variances[c] = make([]float64, width)

		values := make([]float64, len(rows))
		for j := 0; j < width; j++ {
			for i, row := range rows {
				values[i] = row[j]
			}
			mean, variance := stat.PopMeanVariance(values, nil)
			m.Means[c][j] = mean
			m.Variances[c][j] = variance + epsilon
		}
	}
	return m, nil
}

// Predict returns the posterior class probabilities.
func (b *Bayes) Predict(handle model.ModelHandle, vector []float64) (int, []float64, error) {
	m, ok := handle.(*Model)
	if !ok {
		return 0, nil, fmt.Errorf("bayes cannot use a %T model", handle)
	}
	if err := classifier.ValidateVector(vector, m.NumFeatures); err != nil {
		return 0, nil, err
	}

	var present []int
	var joint []float64
	for c := 0; c < model.NumClasses; c++ {
		if !m.Present[c] {
			continue
		}
		ll := math.Log(m.Priors[c])
		for j, x := range vector {
			v := m.Variances[c][j]
			d := x - m.Means[c][j]
			ll -= 0.5 * (math.Log(2*math.Pi*v) + d*d/v)
		}
		present = append(present, c)
		joint = append(joint, ll)
	}
	if len(present) == 0 {
		return 0, nil, fmt.Errorf("bayes model has no classes")
	}

	norm := floats.LogSumExp(joint)
	proba := make([]float64, model.NumClasses)
	for i, c := range present {
		proba[c] = math.Exp(joint[i] - norm)
	}
	return classifier.Argmax(proba), proba, nil
}
