// Package classifier holds the checks shared by the model implementations.
// Implementations live in sub-packages and register themselves with internal/factory.
package classifier

import (
	"FlowSentinel/internal/model"
	"fmt"
	"math"
)

// ValidateTrainingSet checks that features and labels line up, that every row
// has the same width and finite values, and that labels are binary.
// It returns the row width.
func ValidateTrainingSet(features [][]float64, labels []int) (int, error) {
	if len(features) == 0 {
		return 0, model.ErrEmptyDataset
	}
	if len(features) != len(labels) {
		return 0, fmt.Errorf("feature matrix has %d rows but label vector has %d", len(features), len(labels))
	}
	width := len(features[0])
	if width == 0 {
		return 0, &model.SchemaMismatchError{Row: 0, Got: 0, Want: model.NumFeatures}
	}
	for i, row := range features {
		if len(row) != width {
			return 0, &model.SchemaMismatchError{Row: i, Got: len(row), Want: width}
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return 0, &model.SchemaMismatchError{Row: i, Got: width, Want: width, Reason: "non-finite value"}
			}
		}
		if labels[i] != model.LabelBenign && labels[i] != model.LabelMalicious {
			return 0, &model.SchemaMismatchError{Row: i, Column: model.LabelColumn, Got: width, Want: width, Reason: fmt.Sprintf("label %d is not 0 or 1", labels[i])}
		}
	}
	return width, nil
}

// ValidateVector checks a prediction input against the width a model was trained on.
func ValidateVector(vector []float64, width int) error {
	if len(vector) != width {
		return &model.SchemaMismatchError{Row: -1, Got: len(vector), Want: width}
	}
	return nil
}

// Argmax returns the index of the largest probability, preferring the lower class on ties.
func Argmax(proba []float64) int {
	best := 0
	for i := 1; i < len(proba); i++ {
		if proba[i] > proba[best] {
			best = i
		}
	}
	return best
}
