package client

import "errors"

// Sentinel kinds for client errors.
var (
	ErrWinnerExists = errors.New("winner already recorded")
	ErrInvalidInput = errors.New("invalid input")
)
