// Package store persists trained model handles.
package store

import (
	"FlowSentinel/internal/model"
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
)

// envelope records the algorithm beside the handle so a loader can detect a
// blob written by a classifier that is not compiled in.
type envelope struct {
	Algorithm string
	Handle    model.ModelHandle
}

// validator is implemented by handles that can check their own structure.
type validator interface {
	Validate() error
}

// Encode serializes a handle. Concrete handle types register themselves with
// gob in their package init.
func Encode(w io.Writer, handle model.ModelHandle) error {
	if handle == nil {
		return model.ErrNoModel
	}
	env := envelope{Algorithm: handle.Algorithm(), Handle: handle}
	if err := gob.NewEncoder(w).Encode(&env); err != nil {
		return fmt.Errorf("failed to encode %s model: %w", env.Algorithm, err)
	}
	return nil
}

// Decode is the inverse of Encode.
func Decode(r io.Reader) (model.ModelHandle, error) {
	var env envelope
	if err := gob.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	if env.Handle == nil {
		return nil, fmt.Errorf("failed to decode model: empty handle")
	}
	if env.Handle.Algorithm() != env.Algorithm {
		return nil, fmt.Errorf("failed to decode model: algorithm %q does not match handle %q", env.Algorithm, env.Handle.Algorithm())
	}
	if v, ok := env.Handle.(validator); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("failed to decode %s model: %w", env.Algorithm, err)
		}
	}
	return env.Handle, nil
}

// Marshal encodes a handle into a byte slice.
func Marshal(handle model.ModelHandle) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, handle); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a handle from a byte slice.
func Unmarshal(data []byte) (model.ModelHandle, error) {
	return Decode(bytes.NewReader(data))
}
