package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrPrizeNotFound = errors.New("prize not found")
	ErrInvalidEntry  = errors.New("entry needs a name")
	ErrEntriesClosed = errors.New("prize no longer accepts entries")
	ErrStoreFailed   = errors.New("store write failed")
	ErrUnknownDriver = errors.New("unknown store driver")
)
