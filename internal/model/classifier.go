package model

// ModelHandle is an opaque reference to a trained classifier. A handle is
// read-only once produced by Fit or by a ModelStore.
type ModelHandle interface {
	// Algorithm names the classifier that produced the handle.
	Algorithm() string
}

// Classifier is the capability interface of a statistical model. The core
// never inspects a handle's parameters; it only passes it back to Predict.
type Classifier interface {
	Name() string
	// Fit trains on a feature matrix and a label vector of the same length.
	Fit(features [][]float64, labels []int) (ModelHandle, error)
	// Predict returns the predicted label and the probability of each class.
	Predict(handle ModelHandle, vector []float64) (int, []float64, error)
}
