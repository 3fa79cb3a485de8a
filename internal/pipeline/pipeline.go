// Package pipeline turns captures into classified flows and trains the model
// that classifies them. A Pipeline holds one model handle; Train and Load
// replace it while Classify calls read it concurrently.
package pipeline

import (
	"FlowSentinel/internal/config"
	"FlowSentinel/internal/engine/feature"
	"FlowSentinel/internal/engine/flowkey"
	"FlowSentinel/internal/factory"
	"FlowSentinel/internal/model"
	"FlowSentinel/internal/report"
	"FlowSentinel/internal/store"
	"FlowSentinel/pkg/pcap"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultTestFraction = 0.2
	DefaultSeed         = 42
)

// NoFeaturesMessage is what operators are told when a capture yields no flows.
const NoFeaturesMessage = "Could not extract features from the PCAP file"

// Pipeline orchestrates extraction, training and classification.
type Pipeline struct {
	mu     sync.RWMutex
	clf    model.Classifier
	handle model.ModelHandle

	// trainer is the configured classifier. Train always fits with it, even
	// after Load switched clf to match a stored model.
	trainer model.Classifier

	store        model.ModelStore
	resolver     flowkey.Resolver
	reportOut    io.Writer
	testFraction float64
	seed         int64
}

// New creates a pipeline in the uninitialized state. Classification fails
// with model.ErrNoModel until Train or Load succeeds.
func New(clf model.Classifier, opts ...Option) *Pipeline {
	p := &Pipeline{
		clf:          clf,
		trainer:      clf,
		store:        store.NewFileStore(),
		resolver:     flowkey.SingleFlow{},
		reportOut:    os.Stdout,
		testFraction: DefaultTestFraction,
		seed:         DefaultSeed,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ready reports whether a model handle is held.
func (p *Pipeline) Ready() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.handle != nil
}

// Algorithm returns the name of the classifier behind the held model.
func (p *Pipeline) Algorithm() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.clf.Name()
}

// Handle returns the held model handle, or nil.
func (p *Pipeline) Handle() model.ModelHandle {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.handle
}

func (p *Pipeline) current() (model.Classifier, model.ModelHandle) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.clf, p.handle
}

func (p *Pipeline) swap(clf model.Classifier, handle model.ModelHandle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clf = clf
	p.handle = handle
}

// Train fits a model on rows, prints an evaluation of the held-out rows to the
// report writer and replaces the held handle.
func (p *Pipeline) Train(rows []model.LabeledSample) (model.ModelHandle, error) {
	if len(rows) == 0 {
		return nil, model.ErrEmptyDataset
	}
	for i, r := range rows {
		if len(r.Features) != model.NumFeatures {
			return nil, &model.SchemaMismatchError{Row: i, Got: len(r.Features), Want: model.NumFeatures}
		}
	}

	clf := p.trainer
	trainIdx, testIdx := p.split(len(rows))
	log.Infof("Training %s on %d rows, holding out %d for evaluation.", clf.Name(), len(trainIdx), len(testIdx))

	features, labels := gather(rows, trainIdx)
	handle, err := clf.Fit(features, labels)
	if err != nil {
		return nil, fmt.Errorf("failed to fit %s: %w", clf.Name(), err)
	}

	if len(testIdx) > 0 {
		if err := p.evaluate(clf, handle, rows, testIdx); err != nil {
			return nil, err
		}
	} else {
		log.Warn("No rows held out, skipping evaluation report.")
	}

	p.swap(clf, handle)
	log.Infof("Model trained with %s.", clf.Name())
	return handle, nil
}

// split shuffles row indices with a fixed seed and returns the training and
// held-out partitions. At least one row always stays in training.
func (p *Pipeline) split(n int) ([]int, []int) {
	perm := rand.New(rand.NewSource(p.seed)).Perm(n)
	testCount := int(math.Ceil(float64(n)*p.testFraction - 1e-9))
	if testCount > n-1 {
		testCount = n - 1
	}
	if testCount < 0 {
		testCount = 0
	}
	return perm[testCount:], perm[:testCount]
}

func gather(rows []model.LabeledSample, idx []int) ([][]float64, []int) {
	features := make([][]float64, len(idx))
	labels := make([]int, len(idx))
	for i, j := range idx {
		features[i] = rows[j].Features
		labels[i] = rows[j].Label
	}
	return features, labels
}

func (p *Pipeline) evaluate(clf model.Classifier, handle model.ModelHandle, rows []model.LabeledSample, testIdx []int) error {
	features, yTrue := gather(rows, testIdx)
	yPred := make([]int, len(features))
	for i, x := range features {
		label, _, err := clf.Predict(handle, x)
		if err != nil {
			return fmt.Errorf("failed to evaluate held-out row %d: %w", testIdx[i], err)
		}
		yPred[i] = label
	}

	eval, err := report.Evaluate(yTrue, yPred)
	if err != nil {
		return err
	}
	log.Infof("Held-out accuracy: %.4f over %d rows.", eval.Accuracy, eval.Total)
	if p.reportOut != nil {
		report.Render(p.reportOut, eval)
	}
	return nil
}

// Classify predicts the label of one feature vector with the held model.
func (p *Pipeline) Classify(fv model.FlowFeatureVector) (model.ClassificationResult, error) {
	clf, handle := p.current()
	return classify(clf, handle, fv)
}

func classify(clf model.Classifier, handle model.ModelHandle, fv model.FlowFeatureVector) (model.ClassificationResult, error) {
	if handle == nil {
		return model.ClassificationResult{}, model.ErrNoModel
	}
	label, proba, err := clf.Predict(handle, fv.Values())
	if err != nil {
		return model.ClassificationResult{}, fmt.Errorf("failed to classify: %w", err)
	}
	confidence := 0.0
	for _, v := range proba {
		if v > confidence {
			confidence = v
		}
	}
	return model.ClassificationResult{Label: label, Confidence: confidence, Probabilities: proba}, nil
}

// Save persists the held model through the store.
func (p *Pipeline) Save(path string) error {
	_, handle := p.current()
	if handle == nil {
		return model.ErrNoModel
	}
	if err := p.store.Save(handle, path); err != nil {
		return err
	}
	log.Infof("Model saved to %s.", path)
	return nil
}

// Load replaces the held model with one from the store. A model trained by a
// different algorithm is served by that registered classifier with default
// settings; a later Train goes back to the configured classifier.
func (p *Pipeline) Load(path string) error {
	handle, err := p.store.Load(path)
	if err != nil {
		return err
	}

	clf, _ := p.current()
	if alg := handle.Algorithm(); alg != clf.Name() {
		next, err := factory.NewClassifier(config.ClassifierConfig{Type: alg})
		if err != nil {
			return fmt.Errorf("model at %s needs classifier %q: %w", path, alg, err)
		}
		log.Infof("Switching classifier from %s to %s for loaded model.", clf.Name(), alg)
		clf = next
	}

	p.swap(clf, handle)
	log.Infof("Model loaded from %s.", path)
	return nil
}

// Extract reads a capture and returns the features of every non-empty flow.
func (p *Pipeline) Extract(r io.Reader) ([]model.FlowFeatures, error) {
	records, err := pcap.Read(r)
	if err != nil {
		return nil, err
	}
	return feature.ExtractGroups(p.resolver.Group(records)), nil
}

// ExtractFile is Extract on a file.
func (p *Pipeline) ExtractFile(path string) ([]model.FlowFeatures, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture: %w", err)
	}
	defer f.Close()

	return p.Extract(f)
}

// Analyze classifies every flow of a capture. A capture without extractable
// features yields no verdicts and no error.
func (p *Pipeline) Analyze(r io.Reader) ([]model.Verdict, error) {
	clf, handle := p.current()
	if handle == nil {
		return nil, model.ErrNoModel
	}

	flows, err := p.Extract(r)
	if err != nil {
		return nil, err
	}

	verdicts := make([]model.Verdict, 0, len(flows))
	for _, f := range flows {
		result, err := classify(clf, handle, f.Features)
		if err != nil {
			return nil, fmt.Errorf("flow %s: %w", f.Key, err)
		}
		verdicts = append(verdicts, model.Verdict{Key: f.Key, Features: f.Features, Result: result})
	}
	return verdicts, nil
}

// AnalyzeFile is Analyze on a file.
func (p *Pipeline) AnalyzeFile(path string) ([]model.Verdict, error) {
	if !p.Ready() {
		return nil, model.ErrNoModel
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture: %w", err)
	}
	defer f.Close()

	return p.Analyze(f)
}
