package domain

import "errors"

// Domain errors represent error conditions in the panelhop domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrConfiguration is returned when profile or settings validation fails.
	ErrConfiguration = errors.New("panelhop: invalid configuration")

	// ErrDimension is returned when a pixel buffer does not match the
	// dimensions required by the target (32×32 panel, 64×64 grid).
	ErrDimension = errors.New("panelhop: pixel buffer dimension mismatch")

	// ErrEncoding is returned when a pixel buffer cannot be encoded into a
	// command frame (payload too large, unknown command kind).
	ErrEncoding = errors.New("panelhop: frame encoding failed")

	// ErrConnection is returned when a device cannot be reached after all
	// connect attempts are exhausted.
	ErrConnection = errors.New("panelhop: device connect failed")

	// ErrChunkWrite is returned when a chunk write fails mid-transfer after
	// all write attempts are exhausted.
	ErrChunkWrite = errors.New("panelhop: chunk write failed")

	// ErrSessionBusy is returned by non-blocking submission when the session
	// is already delivering a frame.
	ErrSessionBusy = errors.New("panelhop: session busy")

	// ErrUnknownDevice is returned when a send targets an identifier that is
	// not present in the profile set.
	ErrUnknownDevice = errors.New("panelhop: device not in profile set")

	// ErrNotRunning is returned when an operation is attempted on a closed
	// controller.
	ErrNotRunning = errors.New("panelhop: not running")
)
