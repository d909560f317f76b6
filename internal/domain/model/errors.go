package model

import "errors"

// ErrInvalidRecord marks a document that cannot be decoded.
var ErrInvalidRecord = errors.New("invalid record")
