package cache

import "errors"

// ErrUnknownCollection is returned for snapshots of an unexpected collection.
var ErrUnknownCollection = errors.New("unknown collection")
