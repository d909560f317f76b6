package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TimestampLayout matches the ISO-8601 form browsers emit from toISOString.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// zonelessLayouts are what a datetime-local input produces.
var zonelessLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// FormatTimestamp renders t in UTC with millisecond precision. Strings in
// this form sort chronologically.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts RFC 3339 and zoneless datetime-local forms; the
// latter are interpreted in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty timestamp", ErrInvalidRecord)
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range zonelessLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized timestamp %q", ErrInvalidRecord, s)
}

// Codec turns store documents into records. Documents written by older
// clients carry zoneless deadlines, which are read in the codec's location.
type Codec struct {
	loc *time.Location
}

// NewCodec returns a codec reading zoneless timestamps in loc.
func NewCodec(loc *time.Location) Codec {
	if loc == nil {
		loc = time.UTC
	}
	return Codec{loc: loc}
}

// Location returns the zone used for zoneless timestamps.
func (c Codec) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

type prizeRecord struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
	Image       string   `json:"image"`
	Deadline    string   `json:"deadline"`
	Entries     []Entry  `json:"entries"`
	Winner      *Entry   `json:"winner"`
	CreatedAt   string   `json:"createdAt"`
}

type labelRecord struct {
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}

// DecodePrize builds a Prize from a document's fields.
func (c Codec) DecodePrize(id string, data map[string]any) (Prize, error) {
	var rec prizeRecord
	if err := remarshal(data, &rec); err != nil {
		return Prize{}, fmt.Errorf("decode prize %s: %w", id, err)
	}

	p := Prize{
		ID:          id,
		Name:        rec.Name,
		Description: rec.Description,
		Images:      rec.Images,
		Entries:     rec.Entries,
		Winner:      rec.Winner,
	}
	// Early records stored a single "image" string.
	if len(p.Images) == 0 && rec.Image != "" {
		p.Images = []string{rec.Image}
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Entries == nil {
		p.Entries = []Entry{}
	}

	var err error
	if p.Deadline, err = ParseTimestamp(rec.Deadline, c.Location()); err != nil {
		return Prize{}, fmt.Errorf("decode prize %s deadline: %w", id, err)
	}
	if rec.CreatedAt != "" {
		if p.CreatedAt, err = ParseTimestamp(rec.CreatedAt, c.Location()); err != nil {
			return Prize{}, fmt.Errorf("decode prize %s createdAt: %w", id, err)
		}
	}
	return p, nil
}

// DecodeLabel builds a Label from a document's fields.
func (c Codec) DecodeLabel(id string, data map[string]any) (Label, error) {
	var rec labelRecord
	if err := remarshal(data, &rec); err != nil {
		return Label{}, fmt.Errorf("decode label %s: %w", id, err)
	}
	l := Label{ID: id, Text: rec.Text}
	if rec.CreatedAt != "" {
		t, err := ParseTimestamp(rec.CreatedAt, c.Location())
		if err != nil {
			return Label{}, fmt.Errorf("decode label %s createdAt: %w", id, err)
		}
		l.CreatedAt = t
	}
	return l, nil
}

// remarshal maps loosely typed document data onto a record struct. Backends
// hand back []any/map[string]any trees or time.Time values, all of which
// have a JSON form the records understand.
func remarshal(data map[string]any, out any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return nil
}
