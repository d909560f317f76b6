package gallery

import "errors"

// Sentinel kinds for gallery errors.
var (
	ErrIndexOutOfRange = errors.New("image index out of range")
	ErrNoImage         = errors.New("no image")
)
