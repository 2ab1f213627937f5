package api

import (
	"errors"
	"net/http"

	service "github.com/okian/drawtree/internal/app"
	"github.com/okian/drawtree/internal/adapters/repository"
	"github.com/okian/drawtree/internal/domain/session"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("backpressure")
	ErrInternal     = errors.New("internal error")
)

// Error codes carried in error responses.
const (
	codeBadRequest   = "bad_request"
	codeNotFound     = "not_found"
	codeBlocked      = "blocked"
	codeNotScored    = "not_scored"
	codeBackpressure = "backpressure"
	codeInternal     = "internal_error"
)

// Error tags a failure with the handler operation and an optional kind.
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

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Wrap tags err with op. A nil err stays nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// WrapKind tags err with op and kind.
func WrapKind(op string, kind, err error) error {
	if err == nil {
		return NewKind(op, kind)
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// NewKind returns an error of kind raised by op.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// classify maps an error to its HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, repository.ErrInvalidID),
		errors.Is(err, service.ErrUnknownPhase):
		return http.StatusBadRequest, codeBadRequest
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, session.ErrBlocked):
		return http.StatusConflict, codeBlocked
	case errors.Is(err, service.ErrNotScored):
		return http.StatusConflict, codeNotScored
	case errors.Is(err, ErrBackpressure), errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, codeBackpressure
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

// fail writes err using its classified status and code.
func fail(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}
