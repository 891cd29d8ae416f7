package model

import "fmt"

// Handle is a loaded model ready to run single-input inference.
// Implementations own their runtime resources and must be closed when the
// serving session ends.
type Handle interface {
	// Invoke runs one forward pass and returns the raw score vector.
	Invoke(tensor []float32) ([]float32, error)
	// InputSize reports the exact number of floats Invoke expects.
	InputSize() int
	Close() error
}

// LoadError means a model or label asset could not be loaded at startup.
// Classification is unavailable for the session; callers should not retry.
type LoadError struct {
	Asset string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.Asset, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// InferenceError means a single inference call failed (shape mismatch,
// runtime failure). The call is abandoned; the handle stays usable.
type InferenceError struct {
	Reason string
	Err    error
}

func (e *InferenceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("inference failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("inference failed: %s", e.Reason)
}

func (e *InferenceError) Unwrap() error { return e.Err }
