package usecase

import "errors"

var (
	// ErrAlreadyRunning is returned when a recompute is requested while another holds the gate.
	ErrAlreadyRunning = errors.New("update already running")
	// ErrTickerNotFound is returned when no theme contains the requested ticker.
	ErrTickerNotFound = errors.New("ticker not found in any theme")
	// ErrEmptyBatch is returned when a period's batch fetch produced no series at all.
	ErrEmptyBatch = errors.New("batch fetch returned no data")
)
