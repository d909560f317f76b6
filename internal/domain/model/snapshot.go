package model

import "time"

// Snapshot is a decoded, complete copy of one collection. Exactly one of
// Prizes or Labels is meaningful, selected by Collection.
type Snapshot struct {
	Collection Collection
	Prizes     []Prize
	Labels     []Label
	ReadAt     time.Time
}

// Len returns the number of records carried.
func (s *Snapshot) Len() int {
	if s.Collection == Labels {
		return len(s.Labels)
	}
	return len(s.Prizes)
}
