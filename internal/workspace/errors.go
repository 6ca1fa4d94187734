package workspace

import (
	"errors"
	"fmt"
)

var (
	// ErrCaptureInProgress is returned when a capture is requested while
	// another one has not finished yet.
	ErrCaptureInProgress = errors.New("workspace: capture already in progress")
	// ErrPositionOutOfRange is returned for a gallery position outside [0, len).
	ErrPositionOutOfRange = errors.New("workspace: gallery position out of range")
)

// CaptureError reports that the draft could not be flattened.
type CaptureError struct {
	Reason string
	Err    error
}

func (e *CaptureError) Error() string {
	if e.Err == nil {
		return "capture: " + e.Reason
	}
	return fmt.Sprintf("capture: %s: %v", e.Reason, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// StorageWriteError reports a gallery change that was applied in memory but
// could not be persisted. It is a notice, not a failure of the operation.
type StorageWriteError struct {
	Op  string
	Err error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("%s: gallery not persisted: %v", e.Op, e.Err)
}

func (e *StorageWriteError) Unwrap() error { return e.Err }
