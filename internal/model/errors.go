package model

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyDataset is returned when training is attempted without rows.
	ErrEmptyDataset = errors.New("training dataset is empty")
	// ErrNoModel is returned when classification is attempted before a model was trained or loaded.
	ErrNoModel = errors.New("no model loaded: train or load a model first")
	// ErrModelNotFound is returned by model stores when nothing is saved under a name.
	ErrModelNotFound = errors.New("model not found")
)

// CaptureFormatError reports an unreadable or corrupt capture.
type CaptureFormatError struct {
	Op  string
	Err error
}

func (e *CaptureFormatError) Error() string {
	return fmt.Sprintf("invalid capture (%s): %v", e.Op, e.Err)
}

func (e *CaptureFormatError) Unwrap() error {
	return e.Err
}

// SchemaMismatchError reports a training row or vector that does not have the
// expected feature layout. Row is -1 when the error is not tied to a dataset row.
type SchemaMismatchError struct {
	Row    int
	Column string
	Got    int
	Want   int
	Reason string
}

func (e *SchemaMismatchError) Error() string {
	msg := "schema mismatch"
	if e.Row >= 0 {
		msg = fmt.Sprintf("%s at row %d", msg, e.Row)
	}
	if e.Column != "" {
		msg = fmt.Sprintf("%s in column %q", msg, e.Column)
	}
	if e.Got != e.Want {
		msg = fmt.Sprintf("%s: got %d fields, want %d", msg, e.Got, e.Want)
	}
	if e.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	}
	return msg
}
