package datefmt

import "errors"

// ErrUnsupportedLocale is returned for locales without a formatter.
var ErrUnsupportedLocale = errors.New("unsupported locale")
