package api

import (
	"errors"
	"net/http"

	"github.com/okian/prizewheel/internal/admin"
	service "github.com/okian/prizewheel/internal/app"
	"github.com/okian/prizewheel/internal/domain/draw"
	"github.com/okian/prizewheel/internal/domain/gallery"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrNotSaved     = errors.New("not saved")
	ErrStreaming    = errors.New("streaming unsupported")
)

// Error is a failed API operation.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return e.Op + ": " + e.Err.Error()
	case e.Kind != nil:
		return e.Op + ": " + e.Kind.Error()
	default:
		return e.Op
	}
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *Error) Unwrap() []error {
	var out []error
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Wrap tags err with op.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// WrapKind tags err with op and kind.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// NewKind returns an error of kind for op.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// classify maps an error onto a status code and a stable error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidEntry),
		errors.Is(err, gallery.ErrIndexOutOfRange),
		errors.Is(err, admin.ErrMissingName),
		errors.Is(err, admin.ErrInvalidDeadline),
		errors.Is(err, admin.ErrUnknownTab):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrNotFound),
		errors.Is(err, service.ErrPrizeNotFound),
		errors.Is(err, draw.ErrPrizeNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, gallery.ErrNoImage):
		return http.StatusNotFound, "no_image"
	case errors.Is(err, service.ErrEntriesClosed):
		return http.StatusConflict, "entries_closed"
	case errors.Is(err, draw.ErrNoEntries):
		return http.StatusConflict, "no_entries"
	case errors.Is(err, draw.ErrAlreadyDecided):
		return http.StatusConflict, "already_decided"
	case errors.Is(err, draw.ErrNotReady):
		return http.StatusConflict, "not_ready"
	case errors.Is(err, draw.ErrDrawInProgress):
		return http.StatusConflict, "draw_in_progress"
	case errors.Is(err, ErrNotSaved),
		errors.Is(err, service.ErrStoreFailed),
		errors.Is(err, draw.ErrCommitFailed):
		return http.StatusBadGateway, "store_failed"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
