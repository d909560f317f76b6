package loadtest

import "time"

// StatusConflict is what the service answers for closed prizes and repeat draws.
const StatusConflict = 409

// Polling constants.
const (
	pollInterval   = 100 * time.Millisecond
	defaultSettle  = 10 * time.Second
	drawGrace      = 250 * time.Millisecond
	maxErrorBody   = 512
	prizeNameLabel = "load-test"
)

// PercentageMultiplier converts ratios to percentages.
const PercentageMultiplier = 100
