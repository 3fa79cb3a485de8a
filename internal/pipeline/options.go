package pipeline

import (
	"FlowSentinel/internal/engine/flowkey"
	"FlowSentinel/internal/model"
	"io"
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithStore sets the collaborator used by Save and Load.
func WithStore(s model.ModelStore) Option {
	return func(p *Pipeline) {
		p.store = s
	}
}

// WithResolver replaces the default single-flow grouping.
func WithResolver(r flowkey.Resolver) Option {
	return func(p *Pipeline) {
		p.resolver = r
	}
}

// WithReportWriter sets where Train prints the evaluation report.
// A nil writer suppresses it.
func WithReportWriter(w io.Writer) Option {
	return func(p *Pipeline) {
		p.reportOut = w
	}
}

// WithSplit sets the held-out fraction and the shuffle seed used by Train.
func WithSplit(testFraction float64, seed int64) Option {
	return func(p *Pipeline) {
		p.testFraction = testFraction
		p.seed = seed
	}
}
