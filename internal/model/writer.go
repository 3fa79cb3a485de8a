package model

import "context"

// VerdictWriter defines a generic interface for exporting classified flows to an external system.
type VerdictWriter interface {
	// Write persists the verdicts produced for a single capture. Source names the capture.
	Write(ctx context.Context, source string, verdicts []Verdict) error

	// Close releases the writer's connection.
	Close() error
}
