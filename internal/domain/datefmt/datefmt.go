// Package datefmt renders deadlines for display.
package datefmt

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/prizewheel/internal/domain/model"
)

// Supported locales.
const (
	LocaleThai    = "th-TH"
	LocaleEnglish = "en"
)

// buddhistEraOffset converts a Gregorian year to the Thai solar calendar.
const buddhistEraOffset = 543

var thaiMonths = [12]string{
	"ม.ค.", "ก.พ.", "มี.ค.", "เม.ย.", "พ.ค.", "มิ.ย.",
	"ก.ค.", "ส.ค.", "ก.ย.", "ต.ค.", "พ.ย.", "ธ.ค.",
}

// Formatter renders timestamps with a locale's short date and 24-hour time.
type Formatter struct {
	locale string
	loc    *time.Location
}

// New returns a formatter for locale in loc; a nil loc means UTC.
func New(locale string, loc *time.Location) (*Formatter, error) {
	if loc == nil {
		loc = time.UTC
	}
	switch strings.ToLower(locale) {
	case "th", "th-th":
		return &Formatter{locale: LocaleThai, loc: loc}, nil
	case "en", "en-us", "en-gb", "":
		return &Formatter{locale: LocaleEnglish, loc: loc}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLocale, locale)
	}
}

// Location returns the display time zone.
func (f *Formatter) Location() *time.Location {
	return f.loc
}

// Format renders t, e.g. "18 ต.ค. 2569 14:30" or "18 Oct 2026, 14:30".
// The zero time renders as "".
func (f *Formatter) Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.In(f.loc)
	if f.locale == LocaleThai {
		return fmt.Sprintf("%d %s %d %02d:%02d",
			t.Day(), thaiMonths[t.Month()-1], t.Year()+buddhistEraOffset, t.Hour(), t.Minute())
	}
	return t.Format("2 Jan 2006, 15:04")
}

// FormatString parses a stored timestamp and renders it. Empty input gives
// ""; input that does not parse is returned unchanged.
func (f *Formatter) FormatString(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	t, err := model.ParseTimestamp(s, f.loc)
	if err != nil {
		return s
	}
	return f.Format(t)
}

// InputValue renders t the way a datetime-local input expects it.
func (f *Formatter) InputValue(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(f.loc).Format("2006-01-02T15:04")
}
