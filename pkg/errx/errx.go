package errx

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// Type classifies an error for transport mapping and logging
type Type string

const (
	TypeValidation    Type = "VALIDATION"
	TypeNotFound      Type = "NOT_FOUND"
	TypeConflict      Type = "CONFLICT"
	TypeAuthorization Type = "AUTHORIZATION"
	TypeBusiness      Type = "BUSINESS"
	TypeExternal      Type = "EXTERNAL"
	TypeInternal      Type = "INTERNAL"
)

// HTTPStatus returns the default status code for an error type
func (t Type) HTTPStatus() int {
	switch t {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeNotFound:
		return http.StatusNotFound
	case TypeConflict:
		return http.StatusConflict
	case TypeAuthorization:
		return http.StatusUnauthorized
	case TypeBusiness:
		return http.StatusUnprocessableEntity
	case TypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is the structured application error returned across package boundaries
type Error struct {
	Code       string         `json:"code"`
	Type       Type           `json:"type"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"status"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetail returns a copy of the error carrying an extra detail
func (e *Error) WithDetail(key string, value any) *Error {
	cp := *e
	cp.Details = make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	cp.Details[key] = value
	return &cp
}

// WithError returns a copy of the error wrapping cause
func (e *Error) WithError(cause error) *Error {
	cp := *e
	cp.Err = cause
	return &cp
}

// New creates an ad-hoc error of the given type
func New(message string, t Type) *Error {
	return &Error{
		Code:       string(t),
		Type:       t,
		Message:    message,
		HTTPStatus: t.HTTPStatus(),
	}
}

// Wrap attaches a message and type to an underlying error
func Wrap(err error, message string, t Type) *Error {
	e := New(message, t)
	e.Err = err
	return e
}

// As extracts the first *Error in err's chain
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Is reports whether err's chain contains an *Error with the given code
func Is(err error, code string) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// ============================================================================
// Registry
// ============================================================================

type definition struct {
	t       Type
	status  int
	message string
}

// Registry holds the error catalogue of one domain. Codes are prefixed with
// the domain name, e.g. "CHAT.SESSION_NOT_FOUND".
type Registry struct {
	prefix string
	mu     sync.RWMutex
	codes  map[string]definition
}

func NewRegistry(prefix string) *Registry {
	return &Registry{
		prefix: prefix,
		codes:  make(map[string]definition),
	}
}

// Register declares a code and returns its fully-qualified form
func (r *Registry) Register(code string, t Type, status int, message string) string {
	full := r.prefix + "." + code

	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes[full] = definition{t: t, status: status, message: message}
	return full
}

// New builds an error for a registered code. Unknown codes become internal errors.
func (r *Registry) New(code string) *Error {
	r.mu.RLock()
	def, ok := r.codes[code]
	r.mu.RUnlock()

	if !ok {
		return &Error{
			Code:       code,
			Type:       TypeInternal,
			Message:    "unregistered error code",
			HTTPStatus: http.StatusInternalServerError,
		}
	}

	return &Error{
		Code:       code,
		Type:       def.t,
		Message:    def.message,
		HTTPStatus: def.status,
	}
}
