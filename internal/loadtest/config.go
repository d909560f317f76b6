package loadtest

import "time"

// Config holds configuration for an entry load run.
type Config struct {
	BaseURL    string        // Base URL of the service
	AdminToken string        // Bearer token for the admin API
	NumEntries int           // Number of distinct entries to submit
	Workers    int           // Number of concurrent submitters
	Timeout    time.Duration // HTTP request timeout
	Window     time.Duration // How long the test prize stays open
	Settle     time.Duration // How long to wait for the entry count to converge
	Draw       bool          // Draw a winner once the prize closes
	OutputFile string        // Output file for submitted entries
	LogFile    string        // Log file for test output
	Verbose    bool          // Enable verbose logging
}

// Entry is one submission to a prize.
type Entry struct {
	Name    string `json:"name"`
	Twitter string `json:"twitter"`
}

// prizeForm mirrors the admin prize form.
type prizeForm struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Images      string `json:"images"`
	Deadline    string `json:"deadline"`
}

// prizeRow is the subset of an admin prize row the tool reads.
type prizeRow struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	EntryCount int    `json:"entry_count"`
}

type prizeList struct {
	Prizes []prizeRow `json:"prizes"`
}

type participant struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
	Handle string `json:"handle"`
}

type participantList struct {
	PrizeID string        `json:"prize_id"`
	Count   int           `json:"count"`
	Entries []participant `json:"entries"`
}

// DrawResult is the announcement returned by a draw.
type DrawResult struct {
	PrizeID   string `json:"prize_id"`
	PrizeName string `json:"prize_name"`
	Winner    Entry  `json:"winner"`
	Message   string `json:"message"`
}

// Stats holds run statistics.
type Stats struct {
	PrizeID          string
	EntriesGenerated int
	EntriesSubmitted int
	EntriesAccepted  int
	EntriesRejected  int
	EntriesFailed    int
	EntriesStored    int
	EntriesMissing   int
	Winner           string
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
