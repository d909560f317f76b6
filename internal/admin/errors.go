package admin

import "errors"

// Sentinel kinds for admin errors.
var (
	ErrUnknownTab      = errors.New("unknown tab")
	ErrMissingName     = errors.New("prize name is required")
	ErrInvalidDeadline = errors.New("invalid deadline")
)
