package draw

import "errors"

// Draw rejections.
var (
	ErrPrizeNotFound  = errors.New("prize not found")
	ErrAlreadyDecided = errors.New("prize already has a winner")
	ErrNotReady       = errors.New("prize deadline has not passed")
	ErrNoEntries      = errors.New("prize has no entries")
	ErrDrawInProgress = errors.New("draw already in progress")
	ErrCommitFailed   = errors.New("winner could not be saved")
)
